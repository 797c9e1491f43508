package tests

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/usman-manii/wallpaintingservices-sub000/app"
	"github.com/usman-manii/wallpaintingservices-sub000/content"
	"github.com/usman-manii/wallpaintingservices-sub000/jobqueue"
	"github.com/usman-manii/wallpaintingservices-sub000/llm"
)

func (t *TestSuite) Test_GenerateThenDistribute() {
	var contentID string

	t.Run("generate content", func() {
		t.generator.post = llm.GeneratedPost{
			Title:          "x",
			Content:        "full article",
			Tags:           []string{"roofing"},
			SEOTitle:       "x seo",
			SEODescription: "about roofing",
		}

		id, err := t.jobs.Enqueue(t.T().Context(), app.TypeGenerateContent,
			app.GenerateContentPayload{Topic: "roofing"})
		t.Require().NoError(err)
		t.Require().NoError(t.worker.Drain(t.T().Context()))

		job, err := t.jobs.Get(t.T().Context(), id)
		t.Require().NoError(err)
		t.Require().Equal(jobqueue.StatusCompleted, job.Status)
		t.Require().Equal(1, job.Attempts)
		t.Require().NotNil(job.ProcessedAt)

		var result app.GenerateContentResult
		t.Require().NoError(json.Unmarshal(job.Result, &result))
		t.Require().Equal("x", result.Title)
		t.Require().NotEmpty(result.ContentID)
		contentID = result.ContentID

		post, err := t.posts.Get(t.T().Context(), uuid.MustParse(contentID))
		t.Require().NoError(err)
		t.Require().Equal(content.PostStatusDraft, post.Status)
		t.Require().Equal("x", post.Title)
	})

	t.Run("distribute with one failing channel", func() {
		id, err := t.jobs.Enqueue(t.T().Context(), app.TypeDistributeContent,
			app.DistributeContentPayload{ContentID: contentID, Channels: []string{"site", "fb"}})
		t.Require().NoError(err)
		t.Require().NoError(t.worker.Drain(t.T().Context()))

		job, err := t.jobs.Get(t.T().Context(), id)
		t.Require().NoError(err)
		t.Require().Equal(jobqueue.StatusCompleted, job.Status)

		var result app.DistributeContentResult
		t.Require().NoError(json.Unmarshal(job.Result, &result))
		t.Require().True(result.Success)
		t.Require().Equal([]string{"site", "fb"}, result.Channels)

		// Only the healthy channel actually delivered.
		t.Require().Equal([]string{"site:x"}, t.published.entries)

		post, err := t.posts.Get(t.T().Context(), uuid.MustParse(contentID))
		t.Require().NoError(err)
		t.Require().Equal(content.PostStatusPublished, post.Status)
	})
}

func (t *TestSuite) Test_GenerateFailureIsRecorded() {
	t.generator.err = errors.New("model overloaded")

	id, err := t.jobs.Enqueue(t.T().Context(), app.TypeGenerateContent,
		app.GenerateContentPayload{Topic: "roofing"})
	t.Require().NoError(err)
	t.Require().NoError(t.worker.Drain(t.T().Context()))

	job, err := t.jobs.Get(t.T().Context(), id)
	t.Require().NoError(err)
	t.Require().Equal(jobqueue.StatusFailed, job.Status)
	t.Require().NotNil(job.Error)
	t.Require().Contains(*job.Error, "model overloaded")
}

func (t *TestSuite) Test_UnknownJobTypeFails() {
	id, err := t.jobs.Enqueue(t.T().Context(), "SEND_NEWSLETTER", nil)
	t.Require().NoError(err)
	t.Require().NoError(t.worker.Drain(t.T().Context()))

	job, err := t.jobs.Get(t.T().Context(), id)
	t.Require().NoError(err)
	t.Require().Equal(jobqueue.StatusFailed, job.Status)
	t.Require().NotNil(job.Error)
	t.Require().Contains(*job.Error, "SEND_NEWSLETTER")
}

func (t *TestSuite) Test_ConcurrentClaimsAreExclusive() {
	id, err := t.jobs.Enqueue(t.T().Context(), "SOLO", nil)
	t.Require().NoError(err)

	const claimers = 10
	wins := make(chan jobqueue.Job, claimers)
	var wg sync.WaitGroup
	for i := 0; i < claimers; i++ {
		wg.Go(func() {
			job, err := t.jobs.ClaimNext(t.T().Context())
			if err == nil {
				wins <- job
			}
		})
	}
	wg.Wait()
	close(wins)

	var claimed []jobqueue.Job
	for job := range wins {
		claimed = append(claimed, job)
	}
	t.Require().Len(claimed, 1, "exactly one claimer must win")
	t.Require().Equal(id, claimed[0].ID)
	t.Require().Equal(jobqueue.StatusProcessing, claimed[0].Status)
	t.Require().Equal(1, claimed[0].Attempts)

	// A terminal write from a non-owner claim must be rejected once the job
	// is completed.
	t.Require().NoError(t.jobs.Complete(t.T().Context(), id, map[string]bool{"ok": true}))
	t.Require().ErrorIs(t.jobs.Fail(t.T().Context(), id, "late"), jobqueue.ErrNotProcessing)
}

func (t *TestSuite) Test_ClaimOrderIsOldestFirst() {
	first, err := t.jobs.Enqueue(t.T().Context(), "A", nil)
	t.Require().NoError(err)
	second, err := t.jobs.Enqueue(t.T().Context(), "A", nil)
	t.Require().NoError(err)

	j1, err := t.jobs.ClaimNext(t.T().Context())
	t.Require().NoError(err)
	t.Require().Equal(first, j1.ID)

	j2, err := t.jobs.ClaimNext(t.T().Context())
	t.Require().NoError(err)
	t.Require().Equal(second, j2.ID)

	_, err = t.jobs.ClaimNext(t.T().Context())
	t.Require().ErrorIs(err, jobqueue.ErrNoJob)
}
