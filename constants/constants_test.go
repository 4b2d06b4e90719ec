package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapExtToFormat(t *testing.T) {
	cases := map[string]Format{
		".pdf":  PDF,
		"PDF":   PDF,
		".DocX": DOCX,
		"txt":   TXT,
		".csv":  TABULAR,
		".XLSX": TABULAR,
		".png":  IMAGE,
		".jpg":  IMAGE,
		".JPEG": IMAGE,
		".gif":  UNSUPPORTED,
		"":      UNSUPPORTED,
		".doc":  UNSUPPORTED,
	}
	for ext, want := range cases {
		assert.Equal(t, want, MapExtToFormat(ext), "ext %q", ext)
	}
}

func TestExtOf(t *testing.T) {
	assert.Equal(t, "pdf", ExtOf("scan.final.PDF"))
	assert.Equal(t, "", ExtOf("README"))
	assert.Equal(t, "jpeg", ExtOf("/tmp/dir.v2/photo.jpeg"))
}

func TestAllowedExtList(t *testing.T) {
	list := AllowedExtList()
	assert.Equal(t, []string{".pdf", ".docx", ".txt", ".csv", ".xlsx", ".png", ".jpg", ".jpeg"}, list)
	for _, e := range list {
		assert.True(t, IsAllowedExt(e))
	}
}

func TestCanonicalizeDocumentType(t *testing.T) {
	cases := []struct {
		in   string
		want DocumentType
		ok   bool
	}{
		{"Passport", Passport, true},
		{"  pan ", PAN, true},
		{"Aadhaar", Aadhar, true},
		{"Driving License", DrivingLicence, true},
		{"utility bill", UtilityBill, true},
		{"GeneralDocument", GeneralDocument, true},
		{"Invoice", GeneralDocument, false},
		{"", GeneralDocument, false},
	}
	for _, c := range cases {
		got, ok := CanonicalizeDocumentType(c.in)
		assert.Equal(t, c.want, got, "input %q", c.in)
		assert.Equal(t, c.ok, ok, "input %q", c.in)
	}
}

func TestFieldSet(t *testing.T) {
	assert.Equal(t, []string{"PAN Number", "Name", "Father's Name", "Date of Birth", "Signature"}, FieldSet(PAN))
	assert.Len(t, FieldSet(Passport), 9)
	assert.Nil(t, FieldSet(GeneralDocument))
	assert.False(t, HasFixedFields(GeneralDocument))

	fs := FieldSet(Aadhar)
	fs[0] = "mutated"
	assert.Equal(t, "Aadhar Number", FieldSet(Aadhar)[0])
}
