// Package layout turns stations and trips into an ordered list of drawable
// primitives for a zigzag time-distance diagram.
package layout

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Style tags emitted by the engine. Trip segments carry the trip's own tag.
const (
	StyleThinHourLine = "thinHourLine"
	StyleHourLine     = "hourLine"
	StyleHourLabel    = "hourLabel"
	StyleStationLine  = "stationLine"
	StyleStationLabel = "stationLabel"
	StyleSmallLabel   = "smallLabel"
	StyleTimeLabel    = "timeLabel"
)

// Defaults applied to zero-valued options.
const (
	DefaultTimeScale         = 40.0 // px per hour; 34 hours fit in 1360px
	DefaultSlotScale         = 40.0 // px per slot in implicit mode
	DefaultExplicitScale     = 1.0  // explicit Y values pass through
	DefaultMaxHour           = 34
	DefaultHourMajorInterval = 3
	DefaultHourMinorInterval = 1
	DefaultLabelMargin       = 8.0
	DefaultGridPadding       = 20.0
	DefaultTimeLabelAngle    = -60.0
)

// Upper bounds accepted by Validate. The validate tags on Options repeat them.
const (
	MaxHourLimit = 168 // one week
	MaxScale     = 10000.0
)

// Options configures a layout. Zero values select the defaults above.
type Options struct {
	TimeScale         float64 `json:"timeScale,omitempty" query:"timeScale" validate:"gte=0,lte=10000"`
	StationScale      float64 `json:"stationScale,omitempty" query:"stationScale" validate:"gte=0,lte=10000"`
	MaxHour           int     `json:"maxHour,omitempty" query:"maxHour" validate:"gte=0,lte=168"`
	HourMajorInterval int     `json:"hourMajorInterval,omitempty" query:"hourMajorInterval" validate:"gte=0,lte=168"`
	HourMinorInterval int     `json:"hourMinorInterval,omitempty" query:"hourMinorInterval" validate:"gte=0,lte=168"`

	// HideMirroredLabels suppresses the station labels at the right margin.
	HideMirroredLabels bool    `json:"hideMirroredLabels,omitempty" query:"hideMirroredLabels"`
	LabelMargin        float64 `json:"labelMargin,omitempty" query:"labelMargin" validate:"gte=0,lte=10000"`
	GridPadding        float64 `json:"gridPadding,omitempty" query:"gridPadding" validate:"gte=0,lte=10000"`
	TimeLabelAngle     float64 `json:"timeLabelAngle,omitempty" query:"timeLabelAngle" validate:"gte=-360,lte=360"`
}

// OptionsError reports a layout option outside its accepted range.
type OptionsError struct {
	Field string
	Value interface{}
	Rule  string
}

func (e *OptionsError) Error() string {
	return fmt.Sprintf("layout option %s=%v violates %s", e.Field, e.Value, e.Rule)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every option against its range. NaN and infinite values
// fail every range and are rejected too.
func (o Options) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &OptionsError{Field: fe.Field(), Value: fe.Value(), Rule: fe.Tag() + "=" + fe.Param()}
	}
	return err
}

// WithDefaults returns a copy of o with zero fields filled in. explicit
// selects the station scale default: pass-through for explicit positions,
// pixels per slot otherwise.
func (o Options) WithDefaults(explicit bool) Options {
	if o.TimeScale <= 0 {
		o.TimeScale = DefaultTimeScale
	}
	if o.StationScale <= 0 {
		if explicit {
			o.StationScale = DefaultExplicitScale
		} else {
			o.StationScale = DefaultSlotScale
		}
	}
	if o.MaxHour <= 0 {
		o.MaxHour = DefaultMaxHour
	}
	if o.HourMajorInterval <= 0 {
		o.HourMajorInterval = DefaultHourMajorInterval
	}
	if o.HourMinorInterval <= 0 {
		o.HourMinorInterval = DefaultHourMinorInterval
	}
	if o.LabelMargin <= 0 {
		o.LabelMargin = DefaultLabelMargin
	}
	if o.GridPadding <= 0 {
		o.GridPadding = DefaultGridPadding
	}
	if o.TimeLabelAngle == 0 {
		o.TimeLabelAngle = DefaultTimeLabelAngle
	}
	return o
}

// Merge overlays the non-zero fields of override onto o.
func (o Options) Merge(override Options) Options {
	if override.TimeScale > 0 {
		o.TimeScale = override.TimeScale
	}
	if override.StationScale > 0 {
		o.StationScale = override.StationScale
	}
	if override.MaxHour > 0 {
		o.MaxHour = override.MaxHour
	}
	if override.HourMajorInterval > 0 {
		o.HourMajorInterval = override.HourMajorInterval
	}
	if override.HourMinorInterval > 0 {
		o.HourMinorInterval = override.HourMinorInterval
	}
	if override.HideMirroredLabels {
		o.HideMirroredLabels = true
	}
	if override.LabelMargin > 0 {
		o.LabelMargin = override.LabelMargin
	}
	if override.GridPadding > 0 {
		o.GridPadding = override.GridPadding
	}
	if override.TimeLabelAngle != 0 {
		o.TimeLabelAngle = override.TimeLabelAngle
	}
	return o
}
