package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Status is the lifecycle state reported by the backend. The set of values
// is owned by the backend so unknown values are kept as-is.
type Status string

const (
	StatusWaiting Status = "WAITING"
	StatusRunning Status = "RUNNING"
	StatusDone    Status = "DONE"
	StatusFailed  Status = "FAILED"
)

func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed
}

type MapobjectType struct {
	ID       string
	Name     string
	Features []Feature
}

type Feature struct {
	Name string
}

// Experiment is one acquisition session together with its channels.
// It is not safe for concurrent mutation.
type Experiment struct {
	id                   string
	Name                 string
	Description          string
	Status               Status
	PlateFormat          int
	MicroscopeType       string
	PlateAcquisitionMode string
	MapobjectTypes       []MapobjectType
	WorkflowDescription  json.RawMessage

	channels []*Channel
}

// NewExperiment builds an Experiment from its record. Channels keep source
// order and only the first one is visible, whatever the record says.
// The record is not validated here; see ExperimentRecord.Validate.
func NewExperiment(rec ExperimentRecord) *Experiment {
	channels := make([]*Channel, len(rec.Channels))
	for i, ch := range rec.Channels {
		channels[i] = NewChannel(ch, i == 0)
	}

	types := make([]MapobjectType, len(rec.MapobjectTypes))
	for i, mt := range rec.MapobjectTypes {
		features := make([]Feature, len(mt.Features))
		for j, f := range mt.Features {
			features[j] = Feature{Name: f.Name}
		}
		types[i] = MapobjectType{ID: mt.ID, Name: mt.Name, Features: features}
	}

	var workflow json.RawMessage
	if !isNullJSON(rec.WorkflowDescription) {
		workflow = append(json.RawMessage(nil), rec.WorkflowDescription...)
	}

	return &Experiment{
		id:                   rec.ID,
		Name:                 rec.Name,
		Description:          rec.Description,
		Status:               Status(rec.Status),
		PlateFormat:          rec.PlateFormat,
		MicroscopeType:       rec.MicroscopeType,
		PlateAcquisitionMode: rec.PlateAcquisitionMode,
		MapobjectTypes:       types,
		WorkflowDescription:  workflow,
		channels:             channels,
	}
}

// isNullJSON reports whether raw is empty or the JSON literal null.
func isNullJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func (e *Experiment) ID() string {
	return e.id
}

// Channels returns the channels in display order. The slice is a copy but
// the channels are shared with the experiment.
func (e *Experiment) Channels() []*Channel {
	out := make([]*Channel, len(e.channels))
	copy(out, e.channels)
	return out
}

// MaxZoom is the maximum zoom level of the first channel's first layer.
// All layers are assumed to share the same pyramid depth.
func (e *Experiment) MaxZoom() (int, error) {
	if len(e.channels) == 0 {
		return 0, ErrNoChannels
	}
	first := e.channels[0]
	if len(first.Layers) == 0 {
		return 0, fmt.Errorf("channel %q: %w", first.Name, ErrNoLayers)
	}
	return first.Layers[0].MaxZoom, nil
}

// MaxZ is the highest focal plane across all channels.
func (e *Experiment) MaxZ() (int, error) {
	return e.reduceZ((*Channel).MaxZ, func(a, b int) int { return max(a, b) })
}

// MinZ is the lowest focal plane across all channels.
func (e *Experiment) MinZ() (int, error) {
	return e.reduceZ((*Channel).MinZ, func(a, b int) int { return min(a, b) })
}

func (e *Experiment) reduceZ(pick func(*Channel) (int, error), reduce func(a, b int) int) (int, error) {
	if len(e.channels) == 0 {
		return 0, ErrNoChannels
	}
	var acc int
	for i, ch := range e.channels {
		z, err := pick(ch)
		if err != nil {
			return 0, fmt.Errorf("channel %q: %w", ch.Name, err)
		}
		if i == 0 {
			acc = z
			continue
		}
		acc = reduce(acc, z)
	}
	return acc, nil
}

// ChannelByName returns the first channel with the given name.
func (e *Experiment) ChannelByName(name string) (*Channel, error) {
	for _, ch := range e.channels {
		if ch.Name == name {
			return ch, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", name, ErrChannelNotFound)
}

func (e *Experiment) SetChannelVisible(name string, visible bool) error {
	ch, err := e.ChannelByName(name)
	if err != nil {
		return err
	}
	ch.SetVisible(visible)
	return nil
}

// VisibleChannels returns the visible channels in display order.
func (e *Experiment) VisibleChannels() []*Channel {
	var out []*Channel
	for _, ch := range e.channels {
		if ch.Visible() {
			out = append(out, ch)
		}
	}
	return out
}

// MoveChannel moves the channel at index from to index to, shifting the
// channels in between.
func (e *Experiment) MoveChannel(from, to int) error {
	n := len(e.channels)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("move channel %d to %d: index out of range [0,%d)", from, to, n)
	}
	if from == to {
		return nil
	}
	ch := e.channels[from]
	if from < to {
		copy(e.channels[from:to], e.channels[from+1:to+1])
	} else {
		copy(e.channels[to+1:from+1], e.channels[to:from])
	}
	e.channels[to] = ch
	return nil
}
