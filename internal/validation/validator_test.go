package validation

import "testing"

type sampleRequest struct {
	Step  string `validate:"required,max=16"`
	Limit int    `validate:"min=1,max=1000"`
}

func TestValidateStructPasses(t *testing.T) {
	req := sampleRequest{Step: "15s", Limit: 100}
	if err := ValidateStruct(&req); err != nil {
		t.Fatalf("expected no validation error, got %v", err)
	}
}

func TestValidateStructReportsRequiredField(t *testing.T) {
	req := sampleRequest{Limit: 10}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error for missing Step")
	}
	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR code, got %s", apiErr.Code)
	}
}

func TestValidateStructReportsOutOfRangeLimit(t *testing.T) {
	req := sampleRequest{Step: "15s", Limit: 5000}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error for out-of-range Limit")
	}
	if len(err.Fields()) != 1 || err.Fields()[0].Field() != "Limit" {
		t.Fatalf("expected single Limit field error, got %+v", err.Fields())
	}
}
