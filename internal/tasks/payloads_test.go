package tasks

import "testing"

func TestNewExportPDFTask(t *testing.T) {
	task, err := NewExportPDFTask(42, "corr-1")
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Type() != TypeExportPDF {
		t.Fatalf("type = %s", task.Type())
	}
	payload, err := ParseExportPDFPayload(task.Payload())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if payload.ResumeID != 42 || payload.CorrelationID != "corr-1" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestParseExportPDFPayloadRejectsMissingResume(t *testing.T) {
	if _, err := ParseExportPDFPayload([]byte(`{"correlation_id":"x"}`)); err == nil {
		t.Fatal("expected error")
	}
	if _, err := ParseExportPDFPayload([]byte(`not json`)); err == nil {
		t.Fatal("expected error")
	}
}
