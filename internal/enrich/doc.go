// Package enrich attaches catalog metadata to merged recommendations and
// applies the display eligibility rule. Enrichment never fails a run;
// records that cannot be completed are kept but marked ineligible.
package enrich
