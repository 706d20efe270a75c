package reemesh

type PropsType int

const (
	PROP_TYPE_STRING = iota
	PROP_TYPE_INT
	PROP_TYPE_FLOAT
	PROP_TYPE_BOOL
	PROP_TYPE_ARRAY
	PROP_TYPE_MAP
)

type PropsValue struct {
	Type  PropsType
	Value interface{}
}

type Properties map[string]PropsValue

func floatValue(v float32) PropsValue {
	return PropsValue{Type: PROP_TYPE_FLOAT, Value: float64(v)}
}

// paramsValue turns a parameter list into a float for a single value and an
// array otherwise.
func paramsValue(params []float32) PropsValue {
	if len(params) == 1 {
		return floatValue(params[0])
	}
	arr := make([]PropsValue, len(params))
	for i, p := range params {
		arr[i] = floatValue(p)
	}
	return PropsValue{Type: PROP_TYPE_ARRAY, Value: arr}
}

// PropertyMap flattens a material into a property bag: shader parameters
// under "params", texture bindings under "textures", and the shader type
// and named flags at the top level.
func (m *Material) PropertyMap() Properties {
	params := make(Properties, len(m.Properties))
	for _, p := range m.Properties {
		params[p.Name] = paramsValue(p.Parameters)
	}
	textures := make(Properties, len(m.Textures))
	for _, t := range m.Textures {
		textures[t.Type] = PropsValue{Type: PROP_TYPE_STRING, Value: t.Path}
	}
	props := Properties{
		"name":       {Type: PROP_TYPE_STRING, Value: m.Name},
		"shaderType": {Type: PROP_TYPE_INT, Value: int64(m.ShaderType)},
		"params":     {Type: PROP_TYPE_MAP, Value: params},
		"textures":   {Type: PROP_TYPE_MAP, Value: textures},
	}
	if m.MasterMaterialPath != "" {
		props["masterMaterial"] = PropsValue{Type: PROP_TYPE_STRING, Value: m.MasterMaterialPath}
	}
	for _, name := range m.Flags.Names() {
		props[name] = PropsValue{Type: PROP_TYPE_BOOL, Value: true}
	}
	return props
}

// Float returns a scalar property, or the first element of an array one.
func (p Properties) Float(name string) (float64, bool) {
	v, ok := p[name]
	if !ok {
		return 0, false
	}
	switch v.Type {
	case PROP_TYPE_FLOAT:
		return v.Value.(float64), true
	case PROP_TYPE_INT:
		return float64(v.Value.(int64)), true
	case PROP_TYPE_ARRAY:
		arr := v.Value.([]PropsValue)
		if len(arr) > 0 && arr[0].Type == PROP_TYPE_FLOAT {
			return arr[0].Value.(float64), true
		}
	}
	return 0, false
}

// Vector returns an array property as floats.
func (p Properties) Vector(name string) ([]float64, bool) {
	v, ok := p[name]
	if !ok {
		return nil, false
	}
	switch v.Type {
	case PROP_TYPE_FLOAT:
		return []float64{v.Value.(float64)}, true
	case PROP_TYPE_ARRAY:
		arr := v.Value.([]PropsValue)
		out := make([]float64, 0, len(arr))
		for _, item := range arr {
			if item.Type != PROP_TYPE_FLOAT {
				return nil, false
			}
			out = append(out, item.Value.(float64))
		}
		return out, true
	}
	return nil, false
}

func (p Properties) Map(name string) (Properties, bool) {
	v, ok := p[name]
	if !ok || v.Type != PROP_TYPE_MAP {
		return nil, false
	}
	return v.Value.(Properties), true
}

// Plain converts the bag into JSON-friendly values, as used for glTF extras.
func (p Properties) Plain() map[string]interface{} {
	out := make(map[string]interface{}, len(p))
	for k, v := range p {
		out[k] = v.plain()
	}
	return out
}

func (v PropsValue) plain() interface{} {
	switch v.Type {
	case PROP_TYPE_ARRAY:
		arr := v.Value.([]PropsValue)
		out := make([]interface{}, len(arr))
		for i, item := range arr {
			out[i] = item.plain()
		}
		return out
	case PROP_TYPE_MAP:
		return v.Value.(Properties).Plain()
	default:
		return v.Value
	}
}
