// Package reconcile compares Radar audit rows with rows returned by the tracing partner.
//
// A pass joins the two datasets on the patient identifier, repairs traced dates,
// evaluates a fixed rule table per row and renders each discrepancy into the row
// shape of its report sheet. Dates of death known only to the tracing partner are
// written back to Radar through a driven.CorrectionWriter.
package reconcile
