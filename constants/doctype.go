package constants

import (
	"strings"
)

type DocumentType string

const (
	Passport        DocumentType = "Passport"
	Aadhar          DocumentType = "Aadhar"
	PAN             DocumentType = "PAN"
	DrivingLicence  DocumentType = "DrivingLicence"
	UtilityBill     DocumentType = "UtilityBill"
	GeneralDocument DocumentType = "GeneralDocument"
)

// NotProvided is the value used for any field that is absent from the document.
const NotProvided = "Not provided"

var allDocumentTypes = []DocumentType{
	Passport,
	Aadhar,
	PAN,
	DrivingLicence,
	UtilityBill,
	GeneralDocument,
}

// fieldSets are the fixed extraction templates per type, in prompt order.
// GeneralDocument has no fixed set.
var fieldSets = map[DocumentType][]string{
	PAN: {
		"PAN Number", "Name", "Father's Name", "Date of Birth", "Signature",
	},
	Aadhar: {
		"Aadhar Number", "Name", "Date of Birth", "Gender", "Address",
	},
	DrivingLicence: {
		"Licence Number", "Name", "Date of Birth", "Valid From", "Valid Until", "Address", "Vehicle Classes",
	},
	Passport: {
		"Passport Number", "Name", "Date of Birth", "Gender", "Place of Birth",
		"Issue Date", "Expiry Date", "Place of Issue", "Nationality",
	},
	UtilityBill: {
		"Account Number", "Name", "Address", "Bill Date", "Bill Amount", "Service Type",
	},
}

func DocumentTypesAsStrings() []string {
	result := make([]string, len(allDocumentTypes))
	for i, t := range allDocumentTypes {
		result[i] = string(t)
	}
	return result
}

// FieldSet returns a copy of the fixed field names for t, or nil for free-form types.
func FieldSet(t DocumentType) []string {
	fs, ok := fieldSets[t]
	if !ok {
		return nil
	}
	out := make([]string, len(fs))
	copy(out, fs)
	return out
}

// HasFixedFields reports whether t is extracted against a fixed template.
func HasFixedFields(t DocumentType) bool {
	_, ok := fieldSets[t]
	return ok
}

// CanonicalizeDocumentType maps a model label to a known type.
// Unknown or empty labels map to GeneralDocument with ok=false.
func CanonicalizeDocumentType(input string) (DocumentType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return GeneralDocument, false
	}

	synonyms := map[string]DocumentType{
		"aadhaar":          Aadhar,
		"aadhaar card":     Aadhar,
		"aadhar card":      Aadhar,
		"pan card":         PAN,
		"driving licence":  DrivingLicence,
		"driving license":  DrivingLicence,
		"drivinglicense":   DrivingLicence,
		"driver's license": DrivingLicence,
		"utility bill":     UtilityBill,
		"general document": GeneralDocument,
		"general":          GeneralDocument,
	}
	if t, ok := synonyms[normalized]; ok {
		return t, true
	}

	for _, t := range allDocumentTypes {
		if normalized == strings.ToLower(string(t)) {
			return t, true
		}
	}
	return GeneralDocument, false
}
