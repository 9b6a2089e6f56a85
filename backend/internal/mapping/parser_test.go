package mapping_test

import (
	"errors"
	"testing"

	"github.com/soar/padinput/backend/internal/mapping"
	"github.com/soar/padinput/backend/internal/test"
)

const reference = "a:b0,b:b1,back:b6,dpdown:h0.4,dpleft:h0.8,dpright:h0.2,dpup:h0.1,guide:b10," +
	"leftshoulder:b4,leftstick:b8,lefttrigger:a2,leftx:a0,lefty:a1,rightshoulder:b5," +
	"rightstick:b9,righttrigger:a5,rightx:a3,righty:a4,start:b7,x:b2,y:b3"

func TestDefaultRecord(t *testing.T) {
	db := mapping.NewDatabase()
	cfg := db.Lookup(mapping.ZeroGUID)

	test.ExpectEquality(t, cfg.Name, "Unmapped Controller")
	test.ExpectSuccess(t, cfg.IsDefault())

	// one item for every token of the record, in record order
	expected := []mapping.Item{
		{mapping.ButtonSource{Index: 0}, mapping.ButtonTarget{Button: mapping.ButtonA}},
		{mapping.ButtonSource{Index: 1}, mapping.ButtonTarget{Button: mapping.ButtonB}},
		{mapping.ButtonSource{Index: 6}, mapping.ButtonTarget{Button: mapping.ButtonBack}},
		{mapping.HatSource{Hat: 0, Code: 4}, mapping.ButtonTarget{Button: mapping.ButtonDPadDown}},
		{mapping.HatSource{Hat: 0, Code: 8}, mapping.ButtonTarget{Button: mapping.ButtonDPadLeft}},
		{mapping.HatSource{Hat: 0, Code: 2}, mapping.ButtonTarget{Button: mapping.ButtonDPadRight}},
		{mapping.HatSource{Hat: 0, Code: 1}, mapping.ButtonTarget{Button: mapping.ButtonDPadUp}},
		{mapping.ButtonSource{Index: 10}, mapping.ButtonTarget{Button: mapping.ButtonGuide}},
		{mapping.ButtonSource{Index: 4}, mapping.ButtonTarget{Button: mapping.ButtonLeftShoulder}},
		{mapping.ButtonSource{Index: 8}, mapping.ButtonTarget{Button: mapping.ButtonLeftStick}},
		{mapping.AxisSource{Index: 2}, mapping.AxisTarget{Axis: mapping.AxisLeftTrigger}},
		{mapping.AxisSource{Index: 0}, mapping.AxisTarget{Axis: mapping.AxisLeftX}},
		{mapping.AxisSource{Index: 1}, mapping.AxisTarget{Axis: mapping.AxisLeftY}},
		{mapping.ButtonSource{Index: 5}, mapping.ButtonTarget{Button: mapping.ButtonRightShoulder}},
		{mapping.ButtonSource{Index: 9}, mapping.ButtonTarget{Button: mapping.ButtonRightStick}},
		{mapping.AxisSource{Index: 5}, mapping.AxisTarget{Axis: mapping.AxisRightTrigger}},
		{mapping.AxisSource{Index: 3}, mapping.AxisTarget{Axis: mapping.AxisRightX}},
		{mapping.AxisSource{Index: 4}, mapping.AxisTarget{Axis: mapping.AxisRightY}},
		{mapping.ButtonSource{Index: 7}, mapping.ButtonTarget{Button: mapping.ButtonStart}},
		{mapping.ButtonSource{Index: 2}, mapping.ButtonTarget{Button: mapping.ButtonX}},
		{mapping.ButtonSource{Index: 3}, mapping.ButtonTarget{Button: mapping.ButtonY}},
	}

	test.DemandEquality(t, len(cfg.Items), len(expected))
	for i := range expected {
		test.ExpectEquality(t, cfg.Items[i], expected[i], i)
	}

	test.ExpectEquality(t, cfg.String(), "00000000000000000000000000000000,Unmapped Controller,"+reference)
}

func TestParseErrors(t *testing.T) {
	for _, rec := range []string{
		"",
		"00000000000000000000000000000000,only two",
		"0000,short guid,a:b0",
		"zz000000000000000000000000000000,bad hex,a:b0",
		"03000000000000000000000000000000,no colon,a",
		"03000000000000000000000000000000,bad axis,leftx:ax",
		"03000000000000000000000000000000,bad button,a:b",
		"03000000000000000000000000000000,signed index,a:b+1",
		"03000000000000000000000000000000,bad hat,dpup:h0",
		"03000000000000000000000000000000,two digit hat,dpup:h10.1",
		"03000000000000000000000000000000,unknown source,a:q1",
	} {
		_, err := mapping.Parse(rec)
		test.ExpectFailure(t, err, rec)
		test.ExpectError(t, err, mapping.ErrFormat, rec)

		var fe *mapping.FormatError
		test.ExpectSuccess(t, errors.As(err, &fe), rec)
	}
}

func TestParseUnmapped(t *testing.T) {
	cfg, err := mapping.Parse("03000000000000000000000000000000,Pad,a:b0,platform:Linux,misc1:b15,")
	test.DemandSuccess(t, err)
	test.DemandEquality(t, len(cfg.Items), 3)

	test.ExpectEquality(t, cfg.Items[1].Target, mapping.Target(mapping.Unmapped{Name: "platform"}))
	test.ExpectEquality(t, cfg.Items[1].Source, mapping.Source(mapping.NoSource{Text: "Linux"}))
	test.ExpectEquality(t, cfg.Items[2].Target, mapping.Target(mapping.Unmapped{Name: "misc1"}))
	test.ExpectEquality(t, cfg.Items[2].Source, mapping.Source(mapping.ButtonSource{Index: 15}))

	test.ExpectEquality(t, cfg.Buttons(), mapping.ButtonA)
	test.ExpectEquality(t, cfg.Axes(), mapping.AxisNone)
}

func TestParseGUIDCase(t *testing.T) {
	cfg, err := mapping.Parse("030000005E0400008E02000010010000,Upper,a:b0")
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, cfg.GUID.String(), "030000005e0400008e02000010010000")
}

func TestHatCodes(t *testing.T) {
	for code, loc := range map[int]mapping.HatLocation{
		0:  mapping.HatCentered,
		1:  mapping.HatUp,
		2:  mapping.HatRight,
		3:  mapping.HatUpRight,
		4:  mapping.HatDown,
		5:  mapping.HatCentered,
		6:  mapping.HatDownRight,
		7:  mapping.HatCentered,
		8:  mapping.HatLeft,
		9:  mapping.HatUpLeft,
		10: mapping.HatCentered,
		11: mapping.HatCentered,
		12: mapping.HatDownLeft,
		13: mapping.HatCentered,
		14: mapping.HatCentered,
		15: mapping.HatCentered,
	} {
		test.ExpectEquality(t, mapping.HatLocationFromCode(code), loc, code)
	}

	test.ExpectSuccess(t, mapping.HatUpRight.Contains(mapping.HatUp))
	test.ExpectSuccess(t, mapping.HatUpRight.Contains(mapping.HatRight))
	test.ExpectFailure(t, mapping.HatUp.Contains(mapping.HatUpRight))
	test.ExpectFailure(t, mapping.HatUp.Contains(mapping.HatCentered))
	test.ExpectFailure(t, mapping.HatCentered.Contains(mapping.HatCentered))
}

func TestMakeGUID(t *testing.T) {
	g := mapping.MakeGUID(mapping.BusUSB, 0x045e, 0x028e, 0x0110)
	test.ExpectEquality(t, g.String(), "030000005e0400008e02000010010000")

	v, p := g.VendorProduct()
	test.ExpectEquality(t, v, uint16(0x045e))
	test.ExpectEquality(t, p, uint16(0x028e))

	test.ExpectSuccess(t, mapping.MakeGUID(mapping.BusUSB, 0, 0x028e, 0).IsZero())
}

func TestFlagStrings(t *testing.T) {
	test.ExpectEquality(t, (mapping.ButtonA | mapping.ButtonStart).String(), "A|Start")
	test.ExpectEquality(t, mapping.ButtonNone.String(), "None")
	test.ExpectEquality(t, mapping.AxisLeftTrigger.String(), "LeftTrigger")
	test.ExpectSuccess(t, mapping.AxisRightTrigger.IsTrigger())
	test.ExpectFailure(t, mapping.AxisLeftX.IsTrigger())
}
