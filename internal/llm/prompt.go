package llm

import (
	"encoding/json"
	"strings"

	"github.com/Sravyatammana-ab/kyc-analyzer/constants"
)

const classifyCharLimit = 4000

const classifySystemPrompt = "You are a KYC document classification expert. Analyze document characteristics to identify the type. " +
	"Respond only with valid JSON with document_type field."

const analyzeSystemPrompt = "You are an expert KYC document analysis AI. Respond only with valid JSON. Extract all key details accurately."

// BuildClassifyPrompts returns the system and user messages for classification.
// Only the first 4000 characters of text are sent.
func BuildClassifyPrompts(text string) (system, user string) {
	var b strings.Builder
	b.WriteString("Analyze the following OCR-extracted text from a KYC document. ")
	b.WriteString("Identify what type of document this is based on the text content.\n\n")
	b.WriteString("Document types:\n")
	b.WriteString("- 'Passport': Contains passport number, issue date, expiry date, MRZ (machine readable zone), nationality, 'REPUBLIC OF', 'P<'\n")
	b.WriteString("- 'Aadhar': Contains 12-digit Aadhar number, 'Government of India', 'My Aadhar My Identity'\n")
	b.WriteString("- 'PAN': Contains 10-character alphanumeric PAN number, 'INCOME TAX DEPARTMENT'\n")
	b.WriteString("- 'DrivingLicence': Contains DL number, 'Driving Licence', vehicle classes, licence validity dates\n")
	b.WriteString("- 'UtilityBill': Contains account number, bill amount, service provider name, bill period\n")
	b.WriteString("- 'GeneralDocument': If none of the above match\n\n")
	b.WriteString(`Respond ONLY with a JSON object containing a single 'document_type' key. Example: {"document_type": "Passport"}.`)
	b.WriteString("\n\nOCR Text:\n")
	b.WriteString(truncateRunes(text, classifyCharLimit))
	return classifySystemPrompt, b.String()
}

const analyzeBasePrompt = "You are an expert at extracting information from KYC documents. " +
	"Analyze the following OCR-extracted text carefully and extract all visible key details. " +
	"You MUST extract ONLY the fields specified in the JSON structure below. " +
	"DO NOT add fields from other document types. " +
	"Extract ALL specified fields - DO NOT skip any field. " +
	"For fields like Gender, if you see a single letter M or F, extract it. " +
	"If any required field is not found in the text, use \"" + constants.NotProvided + "\" as the value. " +
	"Return ONLY a valid JSON object with the following structure:\n"

// fieldHints replace the "..." placeholder for fields that need guidance.
var fieldHints = map[constants.DocumentType]map[string]string{
	constants.Aadhar: {
		"Aadhar Number": "Extract the 12-digit Aadhar number (format: XXXX XXXX XXXX)",
		"Name":          "Full name in both English and regional language if present",
		"Date of Birth": "Birth date in DD/MM/YYYY format",
		"Gender":        "Male, Female, or Transgender",
		"Address":       "Complete address if visible on front side",
	},
	constants.Passport: {
		"Passport Number": "Passport number (alphanumeric, e.g., W9699466)",
		"Name":            "Full name including surname and given names",
		"Date of Birth":   "Birth date in DD/MM/YYYY format",
		"Gender":          "M, F, Male, or Female (often just M or F as a single letter)",
		"Place of Birth":  "City and state/country of birth",
		"Issue Date":      "Date of issue in DD/MM/YYYY format",
		"Expiry Date":     "Date of expiry in DD/MM/YYYY format",
		"Place of Issue":  "City/country where passport was issued",
		"Nationality":     "Nationality (e.g., Indian, INDIAN)",
	},
}

var summaryHints = map[constants.DocumentType]string{
	constants.PAN:             "Brief summary of the PAN card",
	constants.Aadhar:          "Brief summary of the Aadhar card including holder name and key details",
	constants.DrivingLicence:  "Brief summary of the driving licence",
	constants.Passport:        "Brief summary of the passport including holder name and key details",
	constants.UtilityBill:     "Brief summary of the utility bill",
	constants.GeneralDocument: "Brief summary of the document",
}

var typeInstructions = map[constants.DocumentType]string{
	constants.Aadhar: "CRITICAL: This is an Aadhar card document. Extract ONLY Aadhar-specific fields. " +
		"DO NOT extract passport, PAN, or any other document fields.\n" +
		"Look carefully for the Aadhar number - it is typically 12 digits in groups of 4 (e.g., 2895 1522 1385). " +
		"Search the entire text for numbers matching this pattern.",
	constants.Passport: "CRITICAL: This is a Passport document. Extract ONLY passport-specific fields. " +
		"DO NOT extract Aadhar or non-passport fields.\n\n" +
		"MANDATORY EXTRACTION: You MUST extract ALL fields listed above. Every single field is required. " +
		"DO NOT skip Date of Birth or Gender.\n" +
		"Search the ENTIRE text carefully from beginning to end. Look for:\n" +
		"- Passport numbers (typically alphanumeric like W9699466)\n" +
		"- Issue dates and expiry dates in DD/MM/YYYY or DD-MM-YYYY format (e.g., 27/12/2022, 26/12/2032)\n" +
		"- Places of issue and birth\n" +
		"- Names in all caps\n" +
		"- The passport number may appear in the MRZ (Machine Readable Zone) section.\n\n" +
		"Date of Birth: search for labels \"DOB\", \"Date of Birth\", \"Birth:\" followed by a DD/MM/YYYY date.\n" +
		"Gender: search for the \"Sex:\" label followed by M or F. The value is often a single letter; " +
		"extract it even if it is one character.",
}

// BuildAnalyzePrompts returns the system and user messages for field
// extraction against the template of docType. The full text is sent.
func BuildAnalyzePrompts(text string, docType constants.DocumentType) (system, user string) {
	var b strings.Builder
	b.WriteString(analyzeBasePrompt)
	b.WriteString(templateJSON(docType))

	label := "\n\nText:\n"
	if extra, ok := typeInstructions[docType]; ok {
		b.WriteString("\n\n")
		b.WriteString(extra)
		label = "\n\nExtracted Text from Document:\n"
	}
	b.WriteString(label)
	b.WriteString(text)
	return analyzeSystemPrompt, b.String()
}

// templateJSON renders the expected response shape with fields in template
// order. encoding/json sorts map keys, so the object is written by hand.
func templateJSON(docType constants.DocumentType) string {
	summary, ok := summaryHints[docType]
	if !ok {
		docType = constants.GeneralDocument
		summary = summaryHints[docType]
	}

	type kv struct{ k, v string }
	var fields []kv
	if fs := constants.FieldSet(docType); fs != nil {
		hints := fieldHints[docType]
		for _, f := range fs {
			v := "..."
			if h, ok := hints[f]; ok {
				v = h
			}
			fields = append(fields, kv{f, v})
		}
	} else {
		fields = []kv{{"Key1", "Value1"}, {"Key2", "Value2"}}
	}

	var b strings.Builder
	b.WriteString("{\n")
	writePair(&b, "  ", "language", "English", true)
	writePair(&b, "  ", "document_type", string(docType), true)
	writePair(&b, "  ", "summary", summary, true)
	b.WriteString("  \"extracted_data\": {\n")
	for i, f := range fields {
		writePair(&b, "    ", f.k, f.v, i < len(fields)-1)
	}
	b.WriteString("  }\n}")
	return b.String()
}

func writePair(b *strings.Builder, indent, k, v string, comma bool) {
	kb, _ := json.Marshal(k)
	vb, _ := json.Marshal(v)
	b.WriteString(indent)
	b.Write(kb)
	b.WriteString(": ")
	b.Write(vb)
	if comma {
		b.WriteByte(',')
	}
	b.WriteByte('\n')
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
