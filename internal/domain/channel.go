package domain

// Layer is a single resolution pyramid of tiled image data.
type Layer struct {
	ID        string
	Tpoint    int
	Zplane    int
	MaxZoom   int
	ImageSize ImageSize
}

// Channel is a named imaging channel. The visible flag belongs to the
// Viewer; the experiment only sets it once at construction.
type Channel struct {
	ID       string
	Name     string
	BitDepth int
	Layers   []Layer

	visible bool
}

// NewChannel builds a Channel from its record, ignoring any visibility the
// record carries in favour of visible.
func NewChannel(rec ChannelRecord, visible bool) *Channel {
	layers := make([]Layer, len(rec.Layers))
	for i, l := range rec.Layers {
		layers[i] = newLayer(l)
	}
	return &Channel{
		ID:       rec.ID,
		Name:     rec.Name,
		BitDepth: rec.BitDepth,
		Layers:   layers,
		visible:  visible,
	}
}

func newLayer(rec LayerRecord) Layer {
	l := Layer{ID: rec.ID, Tpoint: rec.Tpoint}
	if rec.Zplane != nil {
		l.Zplane = *rec.Zplane
	}
	if rec.MaxZoom != nil {
		l.MaxZoom = *rec.MaxZoom
	}
	if rec.ImageSize != nil {
		l.ImageSize = *rec.ImageSize
	}
	return l
}

func (c *Channel) Visible() bool {
	return c.visible
}

func (c *Channel) SetVisible(visible bool) {
	c.visible = visible
}

// MaxZ returns the highest focal plane among the channel's layers.
func (c *Channel) MaxZ() (int, error) {
	if len(c.Layers) == 0 {
		return 0, ErrNoLayers
	}
	z := c.Layers[0].Zplane
	for _, l := range c.Layers[1:] {
		z = max(z, l.Zplane)
	}
	return z, nil
}

// MinZ returns the lowest focal plane among the channel's layers.
func (c *Channel) MinZ() (int, error) {
	if len(c.Layers) == 0 {
		return 0, ErrNoLayers
	}
	z := c.Layers[0].Zplane
	for _, l := range c.Layers[1:] {
		z = min(z, l.Zplane)
	}
	return z, nil
}
