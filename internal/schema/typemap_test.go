package schema

import (
	"strings"
	"testing"

	"github.com/lumenhotels/salescrm/internal/models"
)

func choiceField(t *testing.T, ft models.FieldType) *models.FieldDefinition {
	t.Helper()
	f := &models.FieldDefinition{Name: "segment", DisplayName: "Segment", Type: ft}
	if err := f.SetChoiceList([]models.Choice{
		{Value: "corporate", Label: "Corporate"},
		{Value: "leisure", Label: "Leisure"},
	}); err != nil {
		t.Fatalf("set choices: %v", err)
	}
	return f
}

func TestSlotColumnControlAgree(t *testing.T) {
	all := []models.FieldType{
		models.FieldTypeShortText, models.FieldTypeLongText, models.FieldTypeEmail,
		models.FieldTypeURL, models.FieldTypeSlug, models.FieldTypeInteger,
		models.FieldTypeDecimal, models.FieldTypeFloat, models.FieldTypeDate,
		models.FieldTypeDatetime, models.FieldTypeTime, models.FieldTypeBoolean,
		models.FieldTypeSingleChoice, models.FieldTypeMultiChoice,
		models.FieldTypeFile, models.FieldTypeImage, models.FieldTypeRelationship,
		models.FieldTypeMultiRelationship, models.FieldTypeJSON,
	}
	for _, ft := range all {
		slot, errSlot := SlotFor(ft)
		if errSlot != nil {
			t.Fatalf("slot for %s: %v", ft, errSlot)
		}

		f := &models.FieldDefinition{Name: "probe", DisplayName: "Probe", Type: ft}
		switch ft {
		case models.FieldTypeSingleChoice, models.FieldTypeMultiChoice:
			f = choiceField(t, ft)
		case models.FieldTypeRelationship, models.FieldTypeMultiRelationship:
			f.TargetEntity = "crm.account"
		}

		col, errCol := ColumnSpecFor(f)
		if errCol != nil {
			t.Fatalf("column for %s: %v", ft, errCol)
		}
		if _, errCtl := ControlSpecFor(f); errCtl != nil {
			t.Fatalf("control for %s: %v", ft, errCtl)
		}

		// Each slot family must match the column type family.
		switch slot {
		case SlotInteger:
			if col.DataType != "bigint" {
				t.Fatalf("%s: slot integer but column type %s", ft, col.DataType)
			}
		case SlotDecimal:
			if !strings.HasPrefix(col.DataType, "decimal(") {
				t.Fatalf("%s: slot decimal but column type %s", ft, col.DataType)
			}
		case SlotBoolean:
			if col.DataType != "boolean" {
				t.Fatalf("%s: slot boolean but column type %s", ft, col.DataType)
			}
		case SlotJSON:
			if col.DataType != "jsonb" {
				t.Fatalf("%s: slot json but column type %s", ft, col.DataType)
			}
		}
	}
}

func TestUnknownFieldTypeFailsClosed(t *testing.T) {
	f := &models.FieldDefinition{Name: "x", Type: models.FieldType("hologram")}

	if _, err := SlotFor(f.Type); err == nil {
		t.Fatal("expected slot error for unknown type")
	}
	if _, err := ColumnSpecFor(f); err == nil {
		t.Fatal("expected column error for unknown type")
	}
	if _, err := ControlSpecFor(f); err == nil {
		t.Fatal("expected control error for unknown type")
	}
	if KnownFieldType(f.Type) {
		t.Fatal("unknown type reported as known")
	}
}

func TestChoiceFieldWithoutChoicesRejected(t *testing.T) {
	f := &models.FieldDefinition{Name: "segment", Type: models.FieldTypeSingleChoice}
	if _, err := ColumnSpecFor(f); err == nil {
		t.Fatal("expected choice error")
	}
	if _, err := ControlSpecFor(f); err == nil {
		t.Fatal("expected choice error")
	}
}

func TestRelationshipWithoutTargetRejected(t *testing.T) {
	f := &models.FieldDefinition{Name: "owner", Type: models.FieldTypeRelationship}
	if _, err := ColumnSpecFor(f); err == nil {
		t.Fatal("expected target error")
	}
}

func TestMaxLengthFlowsIntoColumnType(t *testing.T) {
	length := 80
	f := &models.FieldDefinition{Name: "code", Type: models.FieldTypeShortText, MaxLength: &length}
	col, err := ColumnSpecFor(f)
	if err != nil {
		t.Fatalf("column: %v", err)
	}
	if col.DataType != "varchar(80)" {
		t.Fatalf("unexpected column type %s", col.DataType)
	}
}

func TestDecimalPrecisionScaleFlowsThrough(t *testing.T) {
	precision, scale := 12, 4
	f := &models.FieldDefinition{Name: "rate", Type: models.FieldTypeDecimal, Precision: &precision, Scale: &scale}

	col, errCol := ColumnSpecFor(f)
	if errCol != nil {
		t.Fatalf("column: %v", errCol)
	}
	if col.DataType != "decimal(12,4)" {
		t.Fatalf("unexpected column type %s", col.DataType)
	}

	ctl, errCtl := ControlSpecFor(f)
	if errCtl != nil {
		t.Fatalf("control: %v", errCtl)
	}
	if ctl.Precision != 12 || ctl.Scale != 4 {
		t.Fatalf("unexpected control precision %d scale %d", ctl.Precision, ctl.Scale)
	}
}

func TestChoiceOrderPreserved(t *testing.T) {
	f := choiceField(t, models.FieldTypeSingleChoice)
	ctl, err := ControlSpecFor(f)
	if err != nil {
		t.Fatalf("control: %v", err)
	}
	if len(ctl.Choices) != 2 || ctl.Choices[0].Value != "corporate" || ctl.Choices[1].Value != "leisure" {
		t.Fatalf("choice order lost: %+v", ctl.Choices)
	}
}
