// Package dataprocessing turns the published vaccination-status case file
// into an in-memory dataset and slices views out of it.
//
// # Loading
//
// A Loader fetches the payload through a Fetcher, detects whether it is
// parquet or CSV, and decodes it into domain.CaseRecord values. Every record
// gets its total_cases derived from the four status counts. Dates are
// truncated to the calendar day; rows whose date is null or unreadable are
// dropped and counted, while a missing column or a bad count rejects the
// whole payload:
//
//	loader := dataprocessing.NewLoader(fetcher, config.FormatAuto, logger)
//	ds, err := loader.Load(ctx, cfg.Source.URL)
//	if err != nil {
//	    // DATA_UNAVAILABLE or MALFORMED_DATA
//	}
//
// # Filtering
//
// Filter is pure: it never mutates or aliases the dataset it reads.
//
//	criteria := dataprocessing.ResolveCriteria(ds, domain.FilterCriteria{State: "Selangor"})
//	view := dataprocessing.Filter(ds, criteria)
//	totals := dataprocessing.Summarize(view)
package dataprocessing
