package domain

// Report is a request to change the status of one access point. It lives
// only for the duration of a single fulfillment.
type Report struct {
	Target      AccessPointID
	Status      AccessPointStatus
	Description string
}

// ReportOptions configures a Report. A nil Status means NotWorking; an empty
// Description means none was given.
type ReportOptions struct {
	Status      *AccessPointStatus
	Description string
}

// NewReport builds a report against target.
func NewReport(target AccessPointID, opts ReportOptions) Report {
	r := Report{
		Target:      target,
		Status:      DefaultStatus,
		Description: opts.Description,
	}
	if opts.Status != nil {
		r.Status = *opts.Status
	}
	return r
}

// HasDescription reports whether a free-text description was attached.
func (r Report) HasDescription() bool { return r.Description != "" }
