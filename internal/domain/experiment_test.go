package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func intPtr(i int) *int { return &i }

func boolPtr(b bool) *bool { return &b }

func layer(z, zoom int) LayerRecord {
	return LayerRecord{Zplane: intPtr(z), MaxZoom: intPtr(zoom)}
}

func channelRecord(name string, layers ...LayerRecord) ChannelRecord {
	return ChannelRecord{ID: name + "-id", Name: name, Layers: layers}
}

func TestNewExperiment_CopiesScalarFields(t *testing.T) {
	rec := ExperimentRecord{
		ID:                   "exp-1",
		Name:                 "plate screen",
		Description:          "siRNA screen",
		Status:               "RUNNING",
		PlateFormat:          384,
		MicroscopeType:       "cellvoyager",
		PlateAcquisitionMode: "basic",
		MapobjectTypes: []MapobjectTypeRecord{
			{ID: "m1", Name: "Cells", Features: []FeatureRecord{{Name: "Cell_Area"}}},
		},
		WorkflowDescription: json.RawMessage(`{"stages":[]}`),
		Channels:            []ChannelRecord{channelRecord("DAPI", layer(0, 6))},
	}

	exp := NewExperiment(rec)

	if exp.ID() != "exp-1" {
		t.Errorf("expected id exp-1, got %s", exp.ID())
	}
	if exp.Name != "plate screen" || exp.Description != "siRNA screen" {
		t.Errorf("unexpected name/description: %q/%q", exp.Name, exp.Description)
	}
	if exp.Status != StatusRunning {
		t.Errorf("expected status RUNNING, got %s", exp.Status)
	}
	if exp.PlateFormat != 384 || exp.MicroscopeType != "cellvoyager" || exp.PlateAcquisitionMode != "basic" {
		t.Errorf("unexpected plate fields: %d %s %s", exp.PlateFormat, exp.MicroscopeType, exp.PlateAcquisitionMode)
	}
	if len(exp.MapobjectTypes) != 1 || exp.MapobjectTypes[0].Features[0].Name != "Cell_Area" {
		t.Errorf("unexpected mapobject types: %+v", exp.MapobjectTypes)
	}
	if string(exp.WorkflowDescription) != `{"stages":[]}` {
		t.Errorf("workflow description not round-tripped: %s", exp.WorkflowDescription)
	}
}

func TestNewExperiment_NullWorkflowDescription(t *testing.T) {
	var rec ExperimentRecord
	body := `{"id":"e1","name":"s","workflow_description":null,"channels":[]}`
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	tests := []struct {
		name string
		raw  json.RawMessage
	}{
		{"decoded null", rec.WorkflowDescription},
		{"padded null", json.RawMessage(" null\n")},
		{"missing", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := NewExperiment(ExperimentRecord{ID: "e1", Name: "s", WorkflowDescription: tt.raw})
			if exp.WorkflowDescription != nil {
				t.Errorf("expected no workflow description, got %q", exp.WorkflowDescription)
			}
		})
	}
}

func TestNewExperiment_OnlyFirstChannelVisible(t *testing.T) {
	tests := []struct {
		name     string
		channels []ChannelRecord
	}{
		{
			name:     "single channel",
			channels: []ChannelRecord{channelRecord("DAPI", layer(0, 4))},
		},
		{
			name: "three channels",
			channels: []ChannelRecord{
				channelRecord("DAPI", layer(0, 4)),
				channelRecord("GFP", layer(0, 4)),
				channelRecord("RFP", layer(0, 4)),
			},
		},
		{
			name: "record visibility is overridden",
			channels: []ChannelRecord{
				{Name: "DAPI", Visible: boolPtr(false), Layers: []LayerRecord{layer(0, 4)}},
				{Name: "GFP", Visible: boolPtr(true), Layers: []LayerRecord{layer(0, 4)}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := NewExperiment(ExperimentRecord{ID: "e", Name: "e", Channels: tt.channels})
			channels := exp.Channels()
			if len(channels) != len(tt.channels) {
				t.Fatalf("expected %d channels, got %d", len(tt.channels), len(channels))
			}
			for i, ch := range channels {
				if ch.Name != tt.channels[i].Name {
					t.Errorf("channel %d: expected %s, got %s", i, tt.channels[i].Name, ch.Name)
				}
				if ch.Visible() != (i == 0) {
					t.Errorf("channel %d (%s): visible=%v", i, ch.Name, ch.Visible())
				}
			}
		})
	}
}

func TestNewExperiment_NoChannels(t *testing.T) {
	exp := NewExperiment(ExperimentRecord{ID: "e", Name: "empty"})

	if len(exp.Channels()) != 0 {
		t.Fatalf("expected no channels, got %d", len(exp.Channels()))
	}
	if _, err := exp.MaxZoom(); !errors.Is(err, ErrNoChannels) {
		t.Errorf("MaxZoom: expected ErrNoChannels, got %v", err)
	}
	if _, err := exp.MaxZ(); !errors.Is(err, ErrNoChannels) {
		t.Errorf("MaxZ: expected ErrNoChannels, got %v", err)
	}
	if _, err := exp.MinZ(); !errors.Is(err, ErrNoChannels) {
		t.Errorf("MinZ: expected ErrNoChannels, got %v", err)
	}
}

func TestExperiment_ZExtrema(t *testing.T) {
	exp := NewExperiment(ExperimentRecord{
		ID:   "e",
		Name: "z",
		Channels: []ChannelRecord{
			channelRecord("a", layer(0, 5), layer(5, 5)),
			channelRecord("b", layer(-2, 5), layer(3, 5)),
		},
	})

	minZ, err := exp.MinZ()
	if err != nil {
		t.Fatalf("MinZ: %v", err)
	}
	maxZ, err := exp.MaxZ()
	if err != nil {
		t.Fatalf("MaxZ: %v", err)
	}
	if minZ != -2 {
		t.Errorf("expected minZ -2, got %d", minZ)
	}
	if maxZ != 5 {
		t.Errorf("expected maxZ 5, got %d", maxZ)
	}
}

func TestExperiment_ZExtremaChannelWithoutLayers(t *testing.T) {
	exp := NewExperiment(ExperimentRecord{
		ID:       "e",
		Name:     "z",
		Channels: []ChannelRecord{channelRecord("a", layer(0, 5)), {Name: "b"}},
	})

	if _, err := exp.MaxZ(); !errors.Is(err, ErrNoLayers) {
		t.Errorf("expected ErrNoLayers, got %v", err)
	}
}

func TestExperiment_MaxZoomReadsFirstLayerOnly(t *testing.T) {
	exp := NewExperiment(ExperimentRecord{
		ID:   "e",
		Name: "zoom",
		Channels: []ChannelRecord{
			channelRecord("a", layer(0, 3), layer(1, 9)),
			channelRecord("b", layer(0, 12)),
		},
	})

	zoom, err := exp.MaxZoom()
	if err != nil {
		t.Fatalf("MaxZoom: %v", err)
	}
	if zoom != 3 {
		t.Errorf("expected max zoom 3 from first channel's first layer, got %d", zoom)
	}
}

func TestExperiment_MaxZoomFirstChannelWithoutLayers(t *testing.T) {
	exp := NewExperiment(ExperimentRecord{
		ID:       "e",
		Name:     "zoom",
		Channels: []ChannelRecord{{Name: "a"}, channelRecord("b", layer(0, 12))},
	})

	if _, err := exp.MaxZoom(); !errors.Is(err, ErrNoLayers) {
		t.Errorf("expected ErrNoLayers, got %v", err)
	}
}

func TestExperiment_Visibility(t *testing.T) {
	exp := NewExperiment(ExperimentRecord{
		ID:   "e",
		Name: "vis",
		Channels: []ChannelRecord{
			channelRecord("DAPI", layer(0, 1)),
			channelRecord("GFP", layer(0, 1)),
		},
	})

	if err := exp.SetChannelVisible("GFP", true); err != nil {
		t.Fatalf("SetChannelVisible: %v", err)
	}
	if err := exp.SetChannelVisible("DAPI", false); err != nil {
		t.Fatalf("SetChannelVisible: %v", err)
	}
	visible := exp.VisibleChannels()
	if len(visible) != 1 || visible[0].Name != "GFP" {
		t.Errorf("expected only GFP visible, got %v", visible)
	}
	if err := exp.SetChannelVisible("Cy5", true); !errors.Is(err, ErrChannelNotFound) {
		t.Errorf("expected ErrChannelNotFound, got %v", err)
	}
}

func TestExperiment_MoveChannel(t *testing.T) {
	names := func(exp *Experiment) []string {
		var out []string
		for _, ch := range exp.Channels() {
			out = append(out, ch.Name)
		}
		return out
	}
	build := func() *Experiment {
		return NewExperiment(ExperimentRecord{
			ID:   "e",
			Name: "order",
			Channels: []ChannelRecord{
				channelRecord("a", layer(0, 1)),
				channelRecord("b", layer(0, 1)),
				channelRecord("c", layer(0, 1)),
				channelRecord("d", layer(0, 1)),
			},
		})
	}

	tests := []struct {
		name     string
		from, to int
		expected []string
	}{
		{"forward", 0, 2, []string{"b", "c", "a", "d"}},
		{"backward", 3, 1, []string{"a", "d", "b", "c"}},
		{"same index", 1, 1, []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := build()
			if err := exp.MoveChannel(tt.from, tt.to); err != nil {
				t.Fatalf("MoveChannel: %v", err)
			}
			got := names(exp)
			for i := range tt.expected {
				if got[i] != tt.expected[i] {
					t.Fatalf("expected %v, got %v", tt.expected, got)
				}
			}
		})
	}

	if err := build().MoveChannel(0, 4); err == nil {
		t.Error("expected out of range error")
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusWaiting, false},
		{StatusRunning, false},
		{StatusDone, true},
		{StatusFailed, true},
		{Status("SUBMITTED"), false},
	}
	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.terminal {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}
