// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package adminjobs

import "context"

// # Job Status Storage

// JobStore defines the persistence contract for job status records.
//
// Records are short-lived: implementations drop terminal jobs after the
// retention window, so a Find after that returns NotFound.
type JobStore interface {

	/*
		Save upserts a job record.

		Parameters:
		  - context: context.Context
		  - job: *Job

		Returns:
		  - error: Storage failure
	*/
	Save(context context.Context, job *Job) error

	/*
		Find returns the job with the given id.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Job: Status record
		  - error: NotFound for unknown or pruned ids
	*/
	Find(context context.Context, id string) (*Job, error)
}
