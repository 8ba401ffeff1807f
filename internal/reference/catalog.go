// Package reference holds the static catalog of laboratory reference
// ranges and the alias table used to resolve free-text parameter names
// to canonical keys. The catalog is built once at startup and is
// read-only afterwards; components receive it by injection rather than
// through package-level state so tests can run with overridden entries.
package reference

// Categories used by the default catalog. The set is closed: severity
// weighting keys off these exact strings.
const (
	CategoryBloodCount    = "Blood Count"
	CategoryLipidProfile  = "Lipid Profile"
	CategoryMetabolic     = "Metabolic"
	CategoryLiverFunction = "Liver Function"
	CategoryThyroid       = "Thyroid"
	CategoryVitamins      = "Vitamins"
	CategoryElectrolytes  = "Electrolytes"
	CategoryOther         = "Other"
)

// UnboundedMax is the sentinel upper bound for "higher is better"
// parameters and "> min" reference strings.
const UnboundedMax = 999.0

// Entry is the reference data for one canonical parameter.
type Entry struct {
	Key         string  `json:"key"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Unit        string  `json:"unit"`
	Category    string  `json:"category"`
	DisplayName string  `json:"display_name"`
}

// Catalog is an immutable lookup of canonical keys to reference entries
// plus the alias table for name resolution.
type Catalog struct {
	entries map[string]Entry
	aliases map[string]string
}

// NewCatalog builds a catalog from explicit entries and aliases. Inputs
// are copied; the catalog never observes later mutation of the maps.
func NewCatalog(entries []Entry, aliases map[string]string) *Catalog {
	c := &Catalog{
		entries: make(map[string]Entry, len(entries)),
		aliases: make(map[string]string, len(aliases)),
	}
	for _, e := range entries {
		c.entries[e.Key] = e
	}
	for alias, key := range aliases {
		c.aliases[alias] = key
	}
	return c
}

// NewDefaultCatalog builds the catalog with the standard laboratory
// reference ranges and alias table.
func NewDefaultCatalog() *Catalog {
	return NewCatalog(defaultEntries(), defaultAliases())
}

// Lookup returns the entry for a canonical key.
func (c *Catalog) Lookup(key string) (Entry, bool) {
	e, ok := c.entries[key]
	return e, ok
}

// Contains reports whether key is a canonical key in the catalog.
func (c *Catalog) Contains(key string) bool {
	_, ok := c.entries[key]
	return ok
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// CategoryWeight returns the severity multiplier for a category.
// Unknown categories weigh 1.0.
func CategoryWeight(category string) float64 {
	switch category {
	case CategoryBloodCount, CategoryElectrolytes:
		return 1.5
	case CategoryLiverFunction:
		return 1.4
	case CategoryMetabolic, CategoryThyroid:
		return 1.3
	case CategoryLipidProfile:
		return 1.2
	case CategoryVitamins:
		return 1.0
	default:
		return 1.0
	}
}

// defaultEntries is the authoritative source of truth for reference
// ranges. Values follow common laboratory guidelines and are for
// educational classification only.
func defaultEntries() []Entry {
	return []Entry{
		// Blood Count
		{Key: "hemoglobin", Min: 13.0, Max: 17.0, Unit: "g/dL", Category: CategoryBloodCount, DisplayName: "Hemoglobin"},
		{Key: "hematocrit", Min: 38.0, Max: 50.0, Unit: "%", Category: CategoryBloodCount, DisplayName: "Hematocrit"},
		{Key: "rbc", Min: 4.5, Max: 5.5, Unit: "×10⁶/μL", Category: CategoryBloodCount, DisplayName: "Red Blood Cell Count"},
		{Key: "wbc", Min: 4.0, Max: 11.0, Unit: "×10³/μL", Category: CategoryBloodCount, DisplayName: "White Blood Cell Count"},
		{Key: "platelets", Min: 150.0, Max: 400.0, Unit: "×10³/μL", Category: CategoryBloodCount, DisplayName: "Platelet Count"},
		{Key: "mcv", Min: 80.0, Max: 100.0, Unit: "fL", Category: CategoryBloodCount, DisplayName: "Mean Corpuscular Volume"},
		{Key: "mch", Min: 27.0, Max: 33.0, Unit: "pg", Category: CategoryBloodCount, DisplayName: "Mean Corpuscular Hemoglobin"},
		{Key: "mchc", Min: 32.0, Max: 36.0, Unit: "g/dL", Category: CategoryBloodCount, DisplayName: "MCHC"},

		// Lipid Profile
		{Key: "total_cholesterol", Min: 0, Max: 200.0, Unit: "mg/dL", Category: CategoryLipidProfile, DisplayName: "Total Cholesterol"},
		{Key: "hdl_cholesterol", Min: 40.0, Max: UnboundedMax, Unit: "mg/dL", Category: CategoryLipidProfile, DisplayName: "HDL Cholesterol"},
		{Key: "ldl_cholesterol", Min: 0, Max: 100.0, Unit: "mg/dL", Category: CategoryLipidProfile, DisplayName: "LDL Cholesterol"},
		{Key: "triglycerides", Min: 0, Max: 150.0, Unit: "mg/dL", Category: CategoryLipidProfile, DisplayName: "Triglycerides"},
		{Key: "vldl", Min: 0, Max: 30.0, Unit: "mg/dL", Category: CategoryLipidProfile, DisplayName: "VLDL"},

		// Metabolic Panel
		{Key: "fasting_glucose", Min: 70.0, Max: 100.0, Unit: "mg/dL", Category: CategoryMetabolic, DisplayName: "Fasting Glucose"},
		{Key: "random_glucose", Min: 70.0, Max: 140.0, Unit: "mg/dL", Category: CategoryMetabolic, DisplayName: "Random Glucose"},
		{Key: "hba1c", Min: 0, Max: 5.7, Unit: "%", Category: CategoryMetabolic, DisplayName: "HbA1c"},
		{Key: "creatinine", Min: 0.7, Max: 1.3, Unit: "mg/dL", Category: CategoryMetabolic, DisplayName: "Creatinine"},
		{Key: "blood_urea_nitrogen", Min: 7.0, Max: 20.0, Unit: "mg/dL", Category: CategoryMetabolic, DisplayName: "Blood Urea Nitrogen"},
		{Key: "uric_acid", Min: 3.5, Max: 7.2, Unit: "mg/dL", Category: CategoryMetabolic, DisplayName: "Uric Acid"},

		// Liver Function
		{Key: "sgpt_alt", Min: 0, Max: 40.0, Unit: "U/L", Category: CategoryLiverFunction, DisplayName: "SGPT (ALT)"},
		{Key: "sgot_ast", Min: 0, Max: 40.0, Unit: "U/L", Category: CategoryLiverFunction, DisplayName: "SGOT (AST)"},
		{Key: "alkaline_phosphatase", Min: 44.0, Max: 147.0, Unit: "U/L", Category: CategoryLiverFunction, DisplayName: "Alkaline Phosphatase"},
		{Key: "total_bilirubin", Min: 0.1, Max: 1.2, Unit: "mg/dL", Category: CategoryLiverFunction, DisplayName: "Total Bilirubin"},
		{Key: "direct_bilirubin", Min: 0, Max: 0.3, Unit: "mg/dL", Category: CategoryLiverFunction, DisplayName: "Direct Bilirubin"},
		{Key: "total_protein", Min: 6.0, Max: 8.3, Unit: "g/dL", Category: CategoryLiverFunction, DisplayName: "Total Protein"},
		{Key: "albumin", Min: 3.5, Max: 5.0, Unit: "g/dL", Category: CategoryLiverFunction, DisplayName: "Albumin"},

		// Thyroid
		{Key: "tsh", Min: 0.4, Max: 4.0, Unit: "mIU/L", Category: CategoryThyroid, DisplayName: "TSH"},
		{Key: "t3", Min: 80.0, Max: 200.0, Unit: "ng/dL", Category: CategoryThyroid, DisplayName: "T3"},
		{Key: "t4", Min: 5.0, Max: 12.0, Unit: "μg/dL", Category: CategoryThyroid, DisplayName: "T4"},
		{Key: "free_t3", Min: 2.3, Max: 4.2, Unit: "pg/mL", Category: CategoryThyroid, DisplayName: "Free T3"},
		{Key: "free_t4", Min: 0.8, Max: 1.8, Unit: "ng/dL", Category: CategoryThyroid, DisplayName: "Free T4"},

		// Vitamins & Minerals
		{Key: "vitamin_d", Min: 30.0, Max: 100.0, Unit: "ng/mL", Category: CategoryVitamins, DisplayName: "Vitamin D"},
		{Key: "vitamin_b12", Min: 200.0, Max: 900.0, Unit: "pg/mL", Category: CategoryVitamins, DisplayName: "Vitamin B12"},
		{Key: "folate", Min: 3.0, Max: 17.0, Unit: "ng/mL", Category: CategoryVitamins, DisplayName: "Folate"},
		{Key: "iron", Min: 60.0, Max: 170.0, Unit: "μg/dL", Category: CategoryVitamins, DisplayName: "Serum Iron"},
		{Key: "ferritin", Min: 12.0, Max: 300.0, Unit: "ng/mL", Category: CategoryVitamins, DisplayName: "Ferritin"},
		{Key: "calcium", Min: 8.5, Max: 10.5, Unit: "mg/dL", Category: CategoryVitamins, DisplayName: "Calcium"},

		// Electrolytes
		{Key: "sodium", Min: 136.0, Max: 145.0, Unit: "mEq/L", Category: CategoryElectrolytes, DisplayName: "Sodium"},
		{Key: "potassium", Min: 3.5, Max: 5.0, Unit: "mEq/L", Category: CategoryElectrolytes, DisplayName: "Potassium"},
		{Key: "chloride", Min: 98.0, Max: 106.0, Unit: "mEq/L", Category: CategoryElectrolytes, DisplayName: "Chloride"},
	}
}
