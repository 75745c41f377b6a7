package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExperimentRecord is the serialized experiment as exchanged with the data
// service.
type ExperimentRecord struct {
	ID                   string                `json:"id"`
	Name                 string                `json:"name"`
	Description          string                `json:"description"`
	Status               string                `json:"status"`
	PlateFormat          int                   `json:"plate_format"`
	MicroscopeType       string                `json:"microscope_type"`
	PlateAcquisitionMode string                `json:"plate_acquisition_mode"`
	MapobjectTypes       []MapobjectTypeRecord `json:"mapobject_types"`
	WorkflowDescription  json.RawMessage       `json:"workflow_description,omitempty"`
	Channels             []ChannelRecord       `json:"channels"`
}

type MapobjectTypeRecord struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Features []FeatureRecord `json:"features"`
}

type FeatureRecord struct {
	Name string `json:"name"`
}

// ChannelRecord is the serialized form of a Channel. Visible is accepted on
// the wire but always overridden during experiment construction.
type ChannelRecord struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	BitDepth int           `json:"bit_depth,omitempty"`
	Visible  *bool         `json:"visible,omitempty"`
	Layers   []LayerRecord `json:"layers"`
}

// LayerRecord is one pyramid level of a channel. MaxZoom and Zplane are
// pointers so that a missing value can be told apart from zero.
type LayerRecord struct {
	ID        string     `json:"id"`
	Tpoint    int        `json:"tpoint"`
	Zplane    *int       `json:"zplane"`
	MaxZoom   *int       `json:"max_zoom"`
	ImageSize *ImageSize `json:"image_size,omitempty"`
}

type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Validate checks that the fields later read by the aggregate and its
// projections are present.
func (r ExperimentRecord) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return &MalformedRecordError{Field: "id", Reason: "is required"}
	}
	if strings.TrimSpace(r.Name) == "" {
		return &MalformedRecordError{Field: "name", Reason: "is required"}
	}
	for i, mt := range r.MapobjectTypes {
		if strings.TrimSpace(mt.Name) == "" {
			return &MalformedRecordError{Field: fmt.Sprintf("mapobject_types[%d].name", i), Reason: "is required"}
		}
	}
	if len(r.WorkflowDescription) > 0 && !json.Valid(r.WorkflowDescription) {
		return &MalformedRecordError{Field: "workflow_description", Reason: "is not valid JSON"}
	}
	for i, ch := range r.Channels {
		if err := ch.validate(fmt.Sprintf("channels[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func (r ChannelRecord) validate(path string) error {
	if strings.TrimSpace(r.Name) == "" {
		return &MalformedRecordError{Field: path + ".name", Reason: "is required"}
	}
	if len(r.Layers) == 0 {
		return &MalformedRecordError{Field: path + ".layers", Reason: "must not be empty"}
	}
	for j, l := range r.Layers {
		lp := fmt.Sprintf("%s.layers[%d]", path, j)
		if l.MaxZoom == nil {
			return &MalformedRecordError{Field: lp + ".max_zoom", Reason: "is required"}
		}
		if *l.MaxZoom < 0 {
			return &MalformedRecordError{Field: lp + ".max_zoom", Reason: "must not be negative"}
		}
		if l.Zplane == nil {
			return &MalformedRecordError{Field: lp + ".zplane", Reason: "is required"}
		}
	}
	return nil
}
