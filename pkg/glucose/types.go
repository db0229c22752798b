package glucose

import "fmt"

// ConcentrationUnit selects the unit of a glucose concentration
type ConcentrationUnit uint8

const (
	KgPerLiter  ConcentrationUnit = iota // kg/L
	MolPerLiter                          // mol/L
)

func (u ConcentrationUnit) String() string {
	if u == MolPerLiter {
		return "mol/L"
	}
	return "kg/L"
}

func (u ConcentrationUnit) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// SampleType is the fluid type of a glucose sample
type SampleType uint8

const (
	CapillaryWholeBlood    SampleType = 0x1
	CapillaryPlasma        SampleType = 0x2
	VenousWholeBlood       SampleType = 0x3
	VenousPlasma           SampleType = 0x4
	ArterialWholeBlood     SampleType = 0x5
	ArterialPlasma         SampleType = 0x6
	UndeterminedWholeBlood SampleType = 0x7
	UndeterminedPlasma     SampleType = 0x8
	InterstitialFluid      SampleType = 0x9
	ControlSolution        SampleType = 0xA
)

var sampleTypeNames = map[SampleType]string{
	CapillaryWholeBlood:    "Capillary Whole blood",
	CapillaryPlasma:        "Capillary Plasma",
	VenousWholeBlood:       "Venous Whole blood",
	VenousPlasma:           "Venous Plasma",
	ArterialWholeBlood:     "Arterial Whole blood",
	ArterialPlasma:         "Arterial Plasma",
	UndeterminedWholeBlood: "Undetermined Whole blood",
	UndeterminedPlasma:     "Undetermined Plasma",
	InterstitialFluid:      "Interstitial Fluid (ISF)",
	ControlSolution:        "Control Solution",
}

func (t SampleType) String() string { return enumName(sampleTypeNames, t) }

// SampleLocation is the body site a sample was taken from
type SampleLocation uint8

const (
	LocationFinger            SampleLocation = 0x1
	LocationAlternateSiteTest SampleLocation = 0x2
	LocationEarlobe           SampleLocation = 0x3
	LocationControlSolution   SampleLocation = 0x4
	LocationNotAvailable      SampleLocation = 0xF
)

var sampleLocationNames = map[SampleLocation]string{
	LocationFinger:            "Finger",
	LocationAlternateSiteTest: "Alternate Site Test (AST)",
	LocationEarlobe:           "Earlobe",
	LocationControlSolution:   "Control solution",
	LocationNotAvailable:      "Sample Location value not available",
}

func (l SampleLocation) String() string { return enumName(sampleLocationNames, l) }

// SensorStatus is the Sensor Status Annunciation bit field
type SensorStatus uint16

const (
	StatusBatteryLow SensorStatus = 1 << iota
	StatusSensorMalfunction
	StatusSampleSizeInsufficient
	StatusStripInsertionError
	StatusStripTypeIncorrect
	StatusResultTooHigh
	StatusResultTooLow
	StatusTemperatureTooHigh
	StatusTemperatureTooLow
	StatusReadInterrupted
	StatusGeneralDeviceFault
	StatusTimeFault
)

var sensorStatusNames = []string{
	"Device battery low at time of measurement",
	"Sensor malfunction or faulting at time of measurement",
	"Sample size for blood or control solution insufficient at time of measurement",
	"Strip insertion error",
	"Strip type incorrect for device",
	"Sensor result higher than the device can process",
	"Sensor result lower than the device can process",
	"Sensor temperature too high for valid test/result at time of measurement",
	"Sensor temperature too low for valid test/result at time of measurement",
	"Sensor read interrupted because strip was pulled too soon at time of measurement",
	"General device fault has occurred in the sensor",
	"Time fault has occurred in the sensor and time may be inaccurate",
}

// Has reports whether every bit of flag is set
func (s SensorStatus) Has(flag SensorStatus) bool { return s&flag == flag }

// Annunciations lists the names of the set bits in bit order
func (s SensorStatus) Annunciations() []string {
	var out []string
	for i, name := range sensorStatusNames {
		if s&(1<<i) != 0 {
			out = append(out, name)
		}
	}
	return out
}

// CarbohydrateID names the meal a carbohydrate intake belongs to
type CarbohydrateID uint8

const (
	CarbBreakfast CarbohydrateID = iota + 1
	CarbLunch
	CarbDinner
	CarbSnack
	CarbDrink
	CarbSupper
	CarbBrunch
)

var carbohydrateNames = map[CarbohydrateID]string{
	CarbBreakfast: "Breakfast",
	CarbLunch:     "Lunch",
	CarbDinner:    "Dinner",
	CarbSnack:     "Snack",
	CarbDrink:     "Drink",
	CarbSupper:    "Supper",
	CarbBrunch:    "Brunch",
}

func (c CarbohydrateID) String() string { return enumName(carbohydrateNames, c) }

// Meal relates a measurement to a meal
type Meal uint8

const (
	MealPreprandial Meal = iota + 1
	MealPostprandial
	MealFasting
	MealCasual
	MealBedtime
)

var mealNames = map[Meal]string{
	MealPreprandial:  "Preprandial (before meal)",
	MealPostprandial: "Postprandial (after meal)",
	MealFasting:      "Fasting",
	MealCasual:       "Casual (snacks, drinks, etc.)",
	MealBedtime:      "Bedtime",
}

func (m Meal) String() string { return enumName(mealNames, m) }

// Tester identifies who took the sample
type Tester uint8

const (
	TesterSelf Tester = iota + 1
	TesterHealthCareProfessional
	TesterLabTest
	TesterNotAvailable Tester = 0xF
)

var testerNames = map[Tester]string{
	TesterSelf:                   "Self",
	TesterHealthCareProfessional: "Health Care Professional",
	TesterLabTest:                "Lab test",
	TesterNotAvailable:           "Tester value not available",
}

func (t Tester) String() string { return enumName(testerNames, t) }

// Health is the patient's state when the sample was taken
type Health uint8

const (
	HealthMinorIssues Health = iota + 1
	HealthMajorIssues
	HealthDuringMenses
	HealthUnderStress
	HealthNoIssues
	HealthNotAvailable Health = 0xF
)

var healthNames = map[Health]string{
	HealthMinorIssues:  "Minor health issues",
	HealthMajorIssues:  "Major health issues",
	HealthDuringMenses: "During menses",
	HealthUnderStress:  "Under stress",
	HealthNoIssues:     "No health issues",
	HealthNotAvailable: "Health value not available",
}

func (h Health) String() string { return enumName(healthNames, h) }

// MedicationID names the kind of insulin taken
type MedicationID uint8

const (
	RapidActingInsulin MedicationID = iota + 1
	ShortActingInsulin
	IntermediateActingInsulin
	LongActingInsulin
	PreMixedInsulin
)

var medicationNames = map[MedicationID]string{
	RapidActingInsulin:        "Rapid acting insulin",
	ShortActingInsulin:        "Short acting insulin",
	IntermediateActingInsulin: "Intermediate acting insulin",
	LongActingInsulin:         "Long acting insulin",
	PreMixedInsulin:           "Pre-mixed insulin",
}

func (m MedicationID) String() string { return enumName(medicationNames, m) }

// MedicationUnit selects the unit of a medication amount
type MedicationUnit uint8

const (
	Kilograms MedicationUnit = iota
	Liters
)

func (u MedicationUnit) String() string {
	if u == Liters {
		return "liters"
	}
	return "kilograms"
}

func (u MedicationUnit) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func enumName[T ~uint8](names map[T]string, v T) string {
	if name, ok := names[v]; ok {
		return name
	}
	return fmt.Sprintf("reserved(0x%02x)", uint8(v))
}
