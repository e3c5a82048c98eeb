package dialect

import (
	"fmt"

	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/grammar"
	"github.com/goibis/goibis/internal/types"
	"github.com/goibis/goibis/internal/value"
)

var testWaveforms = []string{
	"Rising Waveform Near", "Falling Waveform Near",
	"Rising Waveform Far", "Falling Waveform Far",
	"Diff Rising Waveform Near", "Diff Falling Waveform Near",
	"Diff Rising Waveform Far", "Diff Falling Waveform Far",
}

const testTypes = "Single_ended Differential"

func testData() *grammar.Section {
	s := grammar.NewSection("Test Data", grammar.Labeled())
	s.Add(
		grammar.NewParam("Test_data_type", value.OneOf(testTypes), grammar.Required()),
		grammar.NewParam("Driver_model", value.Word(), grammar.Required()),
		grammar.NewParam("Driver_model_inv", value.Word()),
		grammar.NewParam("Test_load", value.Word(), grammar.Required()),
	)
	s.Add(each(testWaveforms, increasingTable)...)
	s.OnFinish(func(_ *grammar.Context, in *grammar.Instance) error {
		ch := in.Children
		if kind, _ := ch.Text("Test_data_type"); ch.Has("Driver_model_inv") && kind != "differential" {
			return ibis.NewError(ibis.ErrDisallowed, "test data '%s' contains Driver_model_inv but is not differential", in.Label)
		}
		for _, w := range testWaveforms {
			if ch.Has(w) {
				return nil
			}
		}
		return ibis.NewError(ibis.ErrMissingRequired, "test data '%s' does not have any waveforms", in.Label)
	})
	return s
}

func testLoad() *grammar.Section {
	s := grammar.NewSection("Test Load", grammar.Labeled())
	s.Add(
		grammar.NewParam("Test_load_type", value.OneOf(testTypes), grammar.Required()),
		rangeParam("V_term1"),
		rangeParam("V_term2"),
		grammar.NewParam("Receiver_model", value.Word()),
		grammar.NewParam("Receiver_model_inv", value.Word()),
	)
	s.Add(each([]string{"C1_near", "Rs_near", "Ls_near", "C2_near", "Rp1_near", "Rp2_near",
		"Td", "Zo", "Rp1_far", "Rp2_far", "C2_far", "Ls_far", "Rs_far", "C1_far",
		"R_diff_near", "R_diff_far"}, eqPositive)...)
	s.OnFinish(validateTestLoad)
	return s
}

func validateTestLoad(c *grammar.Context, in *grammar.Instance) error {
	ch := in.Children
	if ch.Has("Td") && !ch.Has("Zo") {
		return ibis.NewError(ibis.ErrMissingRequired, "test load '%s' contains Td but not Zo", in.Label)
	}
	if kind, _ := ch.Text("Test_load_type"); ch.Has("Receiver_model_inv") && kind != "differential" {
		ch.Delete("Receiver_model_inv")
		if err := c.Advise(types.DiagInvReceiverIgnored, ibis.SeverityInfo,
			"test load '%s' is not differential, ignoring Receiver_model_inv", in.Label); err != nil {
			return err
		}
	}
	for _, n := range []string{"1", "2"} {
		for _, end := range []string{"near", "far"} {
			rp := fmt.Sprintf("Rp%s_%s", n, end)
			if ch.Has(rp) && !ch.Has("V_term"+n) {
				return ibis.NewError(ibis.ErrMissingRequired, "test load '%s' contains '%s' but not 'V_term%s'", in.Label, rp, n)
			}
		}
	}
	return nil
}
