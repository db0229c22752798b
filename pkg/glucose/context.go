package glucose

import "github.com/srg/sensorgatt/pkg/codec"

// Glucose Measurement Context flags (org.bluetooth.characteristic.glucose_measurement_context)
const (
	CtxFlagCarbohydrate  uint8 = 1 << 0
	CtxFlagMeal          uint8 = 1 << 1
	CtxFlagTesterHealth  uint8 = 1 << 2
	CtxFlagExercise      uint8 = 1 << 3
	CtxFlagMedication    uint8 = 1 << 4
	CtxFlagMedicationLit uint8 = 1 << 5 // medication in liters, kilograms otherwise
	CtxFlagHbA1c         uint8 = 1 << 6
	CtxFlagExtended      uint8 = 1 << 7
)

// ExerciseDurationOverrun is reported when the exercise lasted longer than the field can hold
const ExerciseDurationOverrun uint16 = 0xFFFF

type Carbohydrate struct {
	ID     CarbohydrateID `json:"id"`
	Amount codec.SFloat   `json:"amount"` // kilograms
}

// TesterHealth is the tester/health nibble pair; Tester is the low nibble.
type TesterHealth struct {
	Tester Tester `json:"tester"`
	Health Health `json:"health"`
}

type Exercise struct {
	Duration  uint16 `json:"duration"`  // seconds
	Intensity uint8  `json:"intensity"` // percent
}

type Medication struct {
	ID     MedicationID   `json:"id"`
	Amount codec.SFloat   `json:"amount"`
	Unit   MedicationUnit `json:"unit"`
}

// Context is a decoded Glucose Measurement Context, correlated to a Record by SequenceNumber.
type Context struct {
	SequenceNumber uint16        `json:"sequence_number"`
	ExtendedFlags  *uint8        `json:"extended_flags,omitempty"`
	Carbohydrate   *Carbohydrate `json:"carbohydrate,omitempty"`
	Meal           *Meal         `json:"meal,omitempty"`
	TesterHealth   *TesterHealth `json:"tester_health,omitempty"`
	Exercise       *Exercise     `json:"exercise,omitempty"`
	Medication     *Medication   `json:"medication,omitempty"`
	HbA1c          *codec.SFloat `json:"hba1c,omitempty"` // percent
}

// Flags returns the flags byte implied by the populated fields
func (c *Context) Flags() uint8 {
	var flags uint8
	if c.Carbohydrate != nil {
		flags |= CtxFlagCarbohydrate
	}
	if c.Meal != nil {
		flags |= CtxFlagMeal
	}
	if c.TesterHealth != nil {
		flags |= CtxFlagTesterHealth
	}
	if c.Exercise != nil {
		flags |= CtxFlagExercise
	}
	if c.Medication != nil {
		flags |= CtxFlagMedication
		if c.Medication.Unit == Liters {
			flags |= CtxFlagMedicationLit
		}
	}
	if c.HbA1c != nil {
		flags |= CtxFlagHbA1c
	}
	if c.ExtendedFlags != nil {
		flags |= CtxFlagExtended
	}
	return flags
}

// DecodeContext decodes one Glucose Measurement Context notification.
// Optional fields are consumed in the fixed profile order whichever of them are absent.
func DecodeContext(data []byte) (*Context, error) {
	r := codec.NewReader(data)
	flags, err := r.Uint8("flags")
	if err != nil {
		return nil, err
	}

	ctx := &Context{}
	if ctx.SequenceNumber, err = r.Uint16("sequence_number"); err != nil {
		return nil, err
	}

	if flags&CtxFlagExtended != 0 {
		ext, err := r.Uint8("extended_flags")
		if err != nil {
			return nil, err
		}
		ctx.ExtendedFlags = &ext
	}

	if flags&CtxFlagCarbohydrate != 0 {
		id, err := r.Uint8("carbohydrate_id")
		if err != nil {
			return nil, err
		}
		amount, err := r.SFloat("carbohydrate")
		if err != nil {
			return nil, err
		}
		ctx.Carbohydrate = &Carbohydrate{ID: CarbohydrateID(id), Amount: amount}
	}

	if flags&CtxFlagMeal != 0 {
		meal, err := r.Uint8("meal")
		if err != nil {
			return nil, err
		}
		m := Meal(meal)
		ctx.Meal = &m
	}

	if flags&CtxFlagTesterHealth != 0 {
		th, err := r.Uint8("tester_health")
		if err != nil {
			return nil, err
		}
		ctx.TesterHealth = &TesterHealth{Tester: Tester(th & 0x0F), Health: Health(th >> 4)}
	}

	if flags&CtxFlagExercise != 0 {
		duration, err := r.Uint16("exercise_duration")
		if err != nil {
			return nil, err
		}
		intensity, err := r.Uint8("exercise_intensity")
		if err != nil {
			return nil, err
		}
		ctx.Exercise = &Exercise{Duration: duration, Intensity: intensity}
	}

	if flags&CtxFlagMedication != 0 {
		id, err := r.Uint8("medication_id")
		if err != nil {
			return nil, err
		}
		amount, err := r.SFloat("medication")
		if err != nil {
			return nil, err
		}
		unit := Kilograms
		if flags&CtxFlagMedicationLit != 0 {
			unit = Liters
		}
		ctx.Medication = &Medication{ID: MedicationID(id), Amount: amount, Unit: unit}
	}

	if flags&CtxFlagHbA1c != 0 {
		hba1c, err := r.SFloat("hba1c")
		if err != nil {
			return nil, err
		}
		ctx.HbA1c = &hba1c
	}

	if err := r.Done(); err != nil {
		return nil, err
	}
	return ctx, nil
}

// EncodeContext is the inverse of DecodeContext
func EncodeContext(c *Context) []byte {
	w := codec.NewWriter(17).
		Uint8(c.Flags()).
		Uint16(c.SequenceNumber)

	if c.ExtendedFlags != nil {
		w.Uint8(*c.ExtendedFlags)
	}
	if c.Carbohydrate != nil {
		w.Uint8(uint8(c.Carbohydrate.ID)).SFloat(c.Carbohydrate.Amount)
	}
	if c.Meal != nil {
		w.Uint8(uint8(*c.Meal))
	}
	if c.TesterHealth != nil {
		w.Uint8(uint8(c.TesterHealth.Health)<<4 | uint8(c.TesterHealth.Tester)&0x0F)
	}
	if c.Exercise != nil {
		w.Uint16(c.Exercise.Duration).Uint8(c.Exercise.Intensity)
	}
	if c.Medication != nil {
		w.Uint8(uint8(c.Medication.ID)).SFloat(c.Medication.Amount)
	}
	if c.HbA1c != nil {
		w.SFloat(*c.HbA1c)
	}
	return w.Bytes()
}
