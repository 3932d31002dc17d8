package pesticide

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"
)

const datasetHeader = `Active substance,Product name,Registration number,Approval status,Approval date,Expiry date,Approved crops,MRL (mg/kg),Member states,Restrictions,Hazard classification`

func newTestParser() *Parser {
	return NewParser(NewLookupCache(time.Minute))
}

func TestParse_ConcreteScenario(t *testing.T) {
	data := datasetHeader + "\n" +
		`"Copper sulfate","Bordeaux Mixture Pro","REG-2021-044","Authorised","2021-03-15","2031-03-15","Vine, Tomatoes","Grapes: 5.0 mg/kg; Tomatoes: 1.0 mg/kg","DE,FR","Do not apply near water; Max 3 applications","H302,H411"`

	records, stats := newTestParser().Parse(context.Background(), data)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if stats.RowsParsed != 1 || stats.RowsSkipped != 0 {
		t.Fatalf("stats = %+v", stats)
	}

	rec := records[0]
	if rec.ProductName != "Bordeaux Mixture Pro" {
		t.Errorf("ProductName = %q", rec.ProductName)
	}
	if rec.ActiveSubstance != "Copper sulfate" {
		t.Errorf("ActiveSubstance = %q", rec.ActiveSubstance)
	}
	if rec.RegistrationNumber != "REG-2021-044" {
		t.Errorf("RegistrationNumber = %q", rec.RegistrationNumber)
	}
	if rec.Status != StatusApproved {
		t.Errorf("Status = %q, want approved", rec.Status)
	}
	if rec.ApprovalDate != "2021-03-15" || rec.ExpiryDate != "2031-03-15" {
		t.Errorf("dates = %q / %q", rec.ApprovalDate, rec.ExpiryDate)
	}

	wantCrops := []string{"grapes", "tomatoes"}
	if !reflect.DeepEqual(rec.ApprovedCrops, wantCrops) {
		t.Errorf("ApprovedCrops = %#v, want %#v", rec.ApprovedCrops, wantCrops)
	}

	wantMRL := []MRLValue{
		{Crop: "grapes", Value: 5.0, Unit: "mg/kg"},
		{Crop: "tomatoes", Value: 1.0, Unit: "mg/kg"},
	}
	if !reflect.DeepEqual(rec.MRLValues, wantMRL) {
		t.Errorf("MRLValues = %#v, want %#v", rec.MRLValues, wantMRL)
	}

	wantJurisdictions := []string{"DE", "FR"}
	if !reflect.DeepEqual(rec.Jurisdictions, wantJurisdictions) {
		t.Errorf("Jurisdictions = %#v, want %#v", rec.Jurisdictions, wantJurisdictions)
	}

	wantRestrictions := []string{"Do not apply near water", "Max 3 applications"}
	if !reflect.DeepEqual(rec.Restrictions, wantRestrictions) {
		t.Errorf("Restrictions = %#v, want %#v", rec.Restrictions, wantRestrictions)
	}

	wantHazards := []string{"H302", "H411"}
	if !reflect.DeepEqual(rec.HazardCodes, wantHazards) {
		t.Errorf("HazardCodes = %#v, want %#v", rec.HazardCodes, wantHazards)
	}

	// Rating per the severity table: H302 -> +1, H411 -> +1, total 2 -> 3.
	if got := SafetyRating(rec.HazardCodes); got != 3 {
		t.Errorf("SafetyRating = %d, want 3", got)
	}
}

func TestParse_SkipsMalformedRows(t *testing.T) {
	rows := []string{
		datasetHeader,
		`"Copper sulfate","Product A","","Approved","","","Grapes","","DE","","H302"`,
		`too,short`, // fewer fields than headers
		`"Glyphosate","Product B","","Approved","","","Wheat","","FR","","H411"`,
		`"Mancozeb","","","Approved","","","Apples","","IT","",""`, // empty product name
		``, // blank line ignored entirely
		`"Sulfur","Product C","","Approved","","","Vine","","ES","",""`,
	}

	records, stats := newTestParser().Parse(context.Background(), strings.Join(rows, "\n"))

	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	want := ParseStats{RowsSeen: 5, RowsParsed: 3, RowsSkipped: 2}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}

	names := []string{records[0].ProductName, records[1].ProductName, records[2].ProductName}
	if !reflect.DeepEqual(names, []string{"Product A", "Product B", "Product C"}) {
		t.Errorf("names = %#v", names)
	}
}

func TestParse_EmptyAndHeaderOnlyInput(t *testing.T) {
	for _, data := range []string{"", "\n", datasetHeader, datasetHeader + "\n"} {
		records, stats := newTestParser().Parse(context.Background(), data)
		if len(records) != 0 {
			t.Errorf("Parse(%q) returned %d records, want 0", data, len(records))
		}
		if stats.RowsParsed != 0 {
			t.Errorf("Parse(%q) stats = %+v", data, stats)
		}
	}
}

func TestParse_UnrecognizedStatusDefaultsToApproved(t *testing.T) {
	data := datasetHeader + "\n" +
		`"Copper sulfate","Product A","","Status Unknown XYZ","","","","","","",""`

	records, _ := newTestParser().Parse(context.Background(), data)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Status != StatusApproved {
		t.Errorf("Status = %q, want approved default", records[0].Status)
	}
}

func TestParse_CRLFInput(t *testing.T) {
	data := datasetHeader + "\r\n" +
		`"Copper sulfate","Product A","","Approved","","","","","","",""` + "\r\n"

	records, _ := newTestParser().Parse(context.Background(), data)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
}

func TestParse_NilCache(t *testing.T) {
	data := datasetHeader + "\n" +
		`"Copper sulfate","Product A","","Approved","","","Vine","Vine: 2.0 mg/kg","DE","",""`

	records, _ := NewParser(nil).Parse(context.Background(), data)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].ApprovedCrops[0] != "grapes" {
		t.Errorf("ApprovedCrops = %#v", records[0].ApprovedCrops)
	}
	if records[0].MRLValues[0].Crop != "grapes" {
		t.Errorf("MRLValues = %#v", records[0].MRLValues)
	}
}
