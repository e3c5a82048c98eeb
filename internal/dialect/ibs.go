package dialect

import (
	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/grammar"
)

// modelIndex resolves model names, looking through [Model Selector]
// groups when a name is not a model.
type modelIndex struct {
	models    *ibis.Node
	selectors *ibis.Node
}

// modelType returns the type of the named model or of the first model of
// the named selector.
func (x modelIndex) modelType(name string) (string, bool) {
	if m := x.models.Node(name); m != nil {
		t, _ := m.Text("Model_type")
		return t, true
	}
	if sel := x.selectors.Node(name); sel != nil && sel.Len() > 0 {
		return x.modelType(sel.Keys()[0])
	}
	return "", false
}

func isSeriesType(t string) bool { return t == "series" || t == "series_switch" }

func validateIBS(_ *grammar.Context, in *grammar.Instance) error {
	ch := in.Children
	x := modelIndex{models: ch.Node("Model"), selectors: ch.Node("Model Selector")}

	for name, v := range x.selectors.All() {
		if err := checkSelector(x, name, v.(*ibis.Node)); err != nil {
			return err
		}
	}

	for compName, v := range ch.Node("Component").All() {
		comp := v.(*ibis.Node)
		for pin, row := range comp.Node("Pin").All() {
			model, ok := row.(*ibis.Node).Text("model_name")
			if !ok || isReserved(model) {
				continue
			}
			t, found := x.modelType(model)
			if !found {
				return ibis.NewError(ibis.ErrUnresolved, "component '%s' lists unknown model '%s' for pin '%s'", compName, model, pin)
			}
			if isSeriesType(t) {
				return ibis.NewError(ibis.ErrDisallowed, "pin '%s' in component '%s' is of wrong model type, '%s'", pin, compName, t)
			}
		}
		for key, row := range comp.Node("Series Pin Mapping").All() {
			r := row.(*ibis.Node)
			model, _ := r.Text("model_name")
			t, found := x.modelType(model)
			if !found {
				return ibis.NewError(ibis.ErrUnresolved, "component '%s' lists unknown model '%s' for series pin mapping '%s'", compName, model, key)
			}
			if !isSeriesType(t) {
				return ibis.NewError(ibis.ErrDisallowed, "series pin mapping '%s' in component '%s' is of wrong model type, '%s'", key, compName, t)
			}
			if t == "series" && r.Value("function_table_group") != nil {
				return ibis.NewError(ibis.ErrDisallowed, "unexpected 'function_table_group' for series pin mapping '%s' of component '%s' with model '%s' of type 'series'", key, compName, model)
			}
		}
	}

	submodels := ch.Node("Submodel")
	for modelName, v := range x.models.All() {
		m := v.(*ibis.Node)
		for _, sub := range m.Node("Add Submodel").Keys() {
			if !submodels.Has(sub) {
				return ibis.NewError(ibis.ErrUnresolved, "submodel '%s' listed under model '%s' not available", sub, modelName)
			}
		}
		for _, driver := range m.Node("Driver Schedule").Keys() {
			target := x.models.Node(driver)
			if target == nil {
				return ibis.NewError(ibis.ErrUnresolved, "listed driver schedule model, '%s', of '%s' does not exist", driver, modelName)
			}
			if target.Has("Driver Schedule") {
				return ibis.NewError(ibis.ErrDisallowed, "listed driver schedule model, '%s', of '%s' contains a driver schedule", driver, modelName)
			}
		}
	}

	loads := ch.Node("Test Load")
	for dataName, v := range ch.Node("Test Data").All() {
		data := v.(*ibis.Node)
		for _, kw := range []string{"Driver_model", "Driver_model_inv"} {
			if model, ok := data.Text(kw); ok && !x.models.Has(model) {
				return ibis.NewError(ibis.ErrUnresolved, "test data '%s' references non-existent model '%s'", dataName, model)
			}
		}
		loadName, _ := data.Text("Test_load")
		load := loads.Node(loadName)
		if load == nil {
			return ibis.NewError(ibis.ErrUnresolved, "test data '%s' references non-existent load '%s'", dataName, loadName)
		}
		dt, _ := data.Text("Test_data_type")
		lt, _ := load.Text("Test_load_type")
		if dt != lt {
			return ibis.NewError(ibis.ErrDisallowed, "test data '%s' type does not match load ('%s') type", dataName, loadName)
		}
	}
	for loadName, v := range loads.All() {
		load := v.(*ibis.Node)
		for _, kw := range []string{"Receiver_model", "Receiver_model_inv"} {
			if model, ok := load.Text(kw); ok && !x.models.Has(model) {
				return ibis.NewError(ibis.ErrUnresolved, "test load '%s' references non-existent model '%s'", loadName, model)
			}
		}
	}
	return nil
}

func checkSelector(x modelIndex, name string, sel *ibis.Node) error {
	if sel.Len() == 0 {
		return ibis.NewError(ibis.ErrMissingRequired, "empty model selector, '%s'", name)
	}
	var first, firstType string
	for model := range sel.All() {
		m := x.models.Node(model)
		if m == nil {
			return ibis.NewError(ibis.ErrUnresolved, "model '%s' in model selector '%s' does not exist", model, name)
		}
		t, _ := m.Text("Model_type")
		if first == "" {
			first, firstType = model, t
			continue
		}
		if t != firstType {
			return ibis.NewError(ibis.ErrDisallowed, "model '%s' in model selector '%s' has type '%s', but first model '%s' has type '%s'", model, name, t, first, firstType)
		}
	}
	return nil
}
