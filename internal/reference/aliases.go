package reference

// defaultAliases maps lowercase free-text synonyms to canonical keys.
// OCR output rarely matches canonical keys verbatim, so this table plus
// the containment scan in Resolve does the heavy lifting.
func defaultAliases() map[string]string {
	return map[string]string{
		// Blood Count
		"hb":                     "hemoglobin",
		"haemoglobin":            "hemoglobin",
		"hgb":                    "hemoglobin",
		"wbc count":              "wbc",
		"white blood cells":      "wbc",
		"white blood cell count": "wbc",
		"leucocytes":             "wbc",
		"leukocytes":             "wbc",
		"total wbc":              "wbc",
		"rbc count":              "rbc",
		"red blood cells":        "rbc",
		"red blood cell count":   "rbc",
		"erythrocytes":           "rbc",
		"total rbc":              "rbc",
		"plt":                    "platelets",
		"platelet count":         "platelets",
		"thrombocytes":           "platelets",
		"platelet":               "platelets",
		"hct":                    "hematocrit",
		"pcv":                    "hematocrit",
		"packed cell volume":     "hematocrit",

		// Lipid Profile
		"cholesterol":      "total_cholesterol",
		"chol":             "total_cholesterol",
		"tc":               "total_cholesterol",
		"hdl":              "hdl_cholesterol",
		"hdl-c":            "hdl_cholesterol",
		"good cholesterol": "hdl_cholesterol",
		"ldl":              "ldl_cholesterol",
		"ldl-c":            "ldl_cholesterol",
		"bad cholesterol":  "ldl_cholesterol",
		"tg":               "triglycerides",
		"trigs":            "triglycerides",
		"triglyceride":     "triglycerides",

		// Glucose
		"glucose fasting":         "fasting_glucose",
		"fbs":                     "fasting_glucose",
		"fasting blood sugar":     "fasting_glucose",
		"glucose":                 "fasting_glucose",
		"blood glucose":           "fasting_glucose",
		"rbs":                     "random_glucose",
		"random blood sugar":      "random_glucose",
		"pp glucose":              "random_glucose",
		"postprandial glucose":    "random_glucose",
		"glycated hemoglobin":     "hba1c",
		"a1c":                     "hba1c",
		"glycosylated hemoglobin": "hba1c",

		// Kidney
		"creat":            "creatinine",
		"serum creatinine": "creatinine",
		"bun":              "blood_urea_nitrogen",
		"urea":             "blood_urea_nitrogen",
		"blood urea":       "blood_urea_nitrogen",
		"urea nitrogen":    "blood_urea_nitrogen",

		// Liver
		"alt":                      "sgpt_alt",
		"sgpt":                     "sgpt_alt",
		"alanine transaminase":     "sgpt_alt",
		"alanine aminotransferase": "sgpt_alt",
		"ast":                      "sgot_ast",
		"sgot":                     "sgot_ast",
		"aspartate transaminase":   "sgot_ast",
		"aspartate aminotransferase": "sgot_ast",
		"alp":                  "alkaline_phosphatase",
		"alk phos":             "alkaline_phosphatase",
		"bilirubin":            "total_bilirubin",
		"t. bilirubin":         "total_bilirubin",
		"total bil":            "total_bilirubin",
		"d. bilirubin":         "direct_bilirubin",
		"conjugated bilirubin": "direct_bilirubin",

		// Thyroid
		"thyroid stimulating hormone": "tsh",
		"thyrotropin":                 "tsh",
		"triiodothyronine":            "t3",
		"thyroxine":                   "t4",
		"ft3":                         "free_t3",
		"ft4":                         "free_t4",

		// Vitamins & Minerals
		"vit d":                 "vitamin_d",
		"25-oh vitamin d":       "vitamin_d",
		"25 hydroxy vitamin d":  "vitamin_d",
		"vit b12":               "vitamin_b12",
		"b12":                   "vitamin_b12",
		"cobalamin":             "vitamin_b12",
		"folic acid":            "folate",
		"serum iron":            "iron",
		"serum ferritin":        "ferritin",

		// Electrolytes
		"na":              "sodium",
		"na+":             "sodium",
		"serum sodium":    "sodium",
		"k":               "potassium",
		"k+":              "potassium",
		"serum potassium": "potassium",
		"cl":              "chloride",
		"serum chloride":  "chloride",
		"ca":              "calcium",
		"serum calcium":   "calcium",
		"fe":              "iron",
	}
}
