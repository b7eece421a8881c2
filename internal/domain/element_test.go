package domain

import "testing"

func TestElement_BoundsDefaults(t *testing.T) {
	tests := []struct {
		name string
		el   Element
		want Rect
	}{
		{"empty", Element{}, Rect{0, 0, 100, 100}},
		{"zero size", Element{"x": 5.0, "y": 6.0, "width": 0.0, "height": 0.0}, Rect{5, 6, 100, 100}},
		{"non-numeric", Element{"x": "5", "width": "wide", "height": nil}, Rect{0, 0, 100, 100}},
		{"negative size kept", Element{"x": 1.0, "y": 2.0, "width": -40.0, "height": 30.0}, Rect{1, 2, -40, 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.el.Bounds(); got != tt.want {
				t.Errorf("Bounds() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestElement_Key(t *testing.T) {
	tests := []struct {
		id any
		ok bool
	}{
		{"abc", true},
		{"", false},
		{1.0, true},
		{0.0, false},
		{true, true},
		{false, false},
		{nil, false},
		{map[string]any{"nested": true}, false},
	}
	for _, tt := range tests {
		_, ok := Element{"id": tt.id}.Key()
		if ok != tt.ok {
			t.Errorf("Key() for id %#v: ok = %v, want %v", tt.id, ok, tt.ok)
		}
	}
}

func TestElement_BindingKey(t *testing.T) {
	el := Element{
		"start": map[string]any{"id": "a"},
		"end":   "b",
	}
	if key, ok := el.BindingKey(BindingStart); !ok || key != "a" {
		t.Errorf("start binding = %v, %v; want a, true", key, ok)
	}
	if _, ok := el.BindingKey(BindingEnd); ok {
		t.Error("string binding should not resolve")
	}
}

func TestElement_IsConnector(t *testing.T) {
	for typ, want := range map[string]bool{
		"arrow": true, "line": true, "rectangle": false, "Arrow": false, "": false,
	} {
		if got := (Element{"type": typ}).IsConnector(); got != want {
			t.Errorf("IsConnector(%q) = %v, want %v", typ, got, want)
		}
	}
}

func TestRect_EdgeCenter(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 100, H: 50}
	want := map[Side]Point{
		SideLeft:   {0, 25},
		SideRight:  {100, 25},
		SideTop:    {50, 0},
		SideBottom: {50, 50},
	}
	for side, p := range want {
		if got := r.EdgeCenter(side); got != p {
			t.Errorf("EdgeCenter(%s) = %+v, want %+v", side, got, p)
		}
	}
}
