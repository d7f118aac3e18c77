package store

import (
	"talentlens/internal/talent"
)

// mergeCandidate folds incoming into existing as a field-level union: new
// non-empty values win, fields the fetch didn't provide keep their old
// values. Work items are united by source URL so a re-delivered record adds
// no duplicates. A nil existing makes the incoming record the baseline.
func mergeCandidate(existing, incoming *talent.Candidate) *talent.Candidate {
	if existing == nil {
		out := cloneCandidate(incoming)
		if out.Status == "" {
			out.Status = talent.StatusWaitlisted
		}
		return out
	}

	out := cloneCandidate(existing)
	in := incoming

	out.Username = pick(in.Username, out.Username)
	out.SubmissionID = pick(in.SubmissionID, out.SubmissionID)
	out.Name = pick(in.Name, out.Name)
	out.Email = pick(in.Email, out.Email)
	out.Phone = pick(in.Phone, out.Phone)
	out.LinkedIn = pick(in.LinkedIn, out.LinkedIn)
	out.CurrentCTC = pick(in.CurrentCTC, out.CurrentCTC)
	out.ProfileURL = pick(in.ProfileURL, out.ProfileURL)
	out.ResumeURL = pick(in.ResumeURL, out.ResumeURL)
	out.Location = pick(in.Location, out.Location)
	out.Bio = pick(in.Bio, out.Bio)
	out.Followers = pick(in.Followers, out.Followers)
	out.GitHubUsername = pick(in.GitHubUsername, out.GitHubUsername)

	if in.Source != "" {
		out.Source = in.Source
	}
	if !in.SubmittedAt.IsZero() {
		out.SubmittedAt = in.SubmittedAt
	}
	if len(in.Skills) > 0 {
		out.Skills = append([]string(nil), in.Skills...)
	}
	if len(in.SocialLinks) > 0 {
		out.SocialLinks = append([]string(nil), in.SocialLinks...)
	}
	if len(in.ImageAnalyses) > 0 {
		out.ImageAnalyses = append([]talent.WorkAnalysis(nil), in.ImageAnalyses...)
	}

	out.Works = mergeWorks(out.Works, in.Works)

	// Signals and evaluation only move forward: an incoming nil means the
	// fetch didn't run (or failed), never "clear the stored result".
	if in.GitHub != nil {
		out.GitHub = in.GitHub
	}
	if in.Resume != nil {
		out.Resume = in.Resume
	}
	if in.Evaluation != nil {
		out.Evaluation = in.Evaluation
	}

	// Status is owned by auto-assignment and manual overrides; a re-fetch
	// never resets it.
	if out.Status == "" {
		out.Status = talent.StatusWaitlisted
	}

	return out
}

func mergeWorks(existing, incoming []talent.WorkItem) []talent.WorkItem {
	if len(incoming) == 0 {
		return existing
	}

	byURL := make(map[string]int, len(existing))
	out := append([]talent.WorkItem(nil), existing...)
	for i, w := range out {
		byURL[w.SourceURL] = i
	}

	for _, w := range incoming {
		if i, ok := byURL[w.SourceURL]; ok {
			out[i].Title = pick(w.Title, out[i].Title)
			out[i].LocalPath = pick(w.LocalPath, out[i].LocalPath)
			continue
		}
		byURL[w.SourceURL] = len(out)
		out = append(out, w)
	}
	return out
}

func pick(incoming, existing string) string {
	if incoming != "" {
		return incoming
	}
	return existing
}
