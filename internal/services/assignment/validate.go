package assignment

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
)

func validateCreate(in CreateInput, now time.Time) error {
	errs := apperr.FieldErrors{}

	if n := utf8.RuneCountInString(in.Title); n < 5 || n > 200 {
		errs.Add("title", "title must be between 5 and 200 characters")
	}
	if n := utf8.RuneCountInString(in.Description); n < 20 || n > 5000 {
		errs.Add("description", "description must be between 20 and 5000 characters")
	}
	if !models.IsCategory(in.Category) {
		errs.Add("category", "unknown category")
	}
	if len(in.Tags) > 10 {
		errs.Add("tags", "at most 10 tags are allowed")
	}
	for _, tag := range in.Tags {
		if n := utf8.RuneCountInString(strings.TrimSpace(tag)); n < 1 || n > 50 {
			errs.Add("tags", "each tag must be between 1 and 50 characters")
			break
		}
	}
	if in.Deadline.IsZero() {
		errs.Add("deadline", "deadline is required")
	} else if !in.Deadline.After(now) {
		errs.Add("deadline", "deadline must be in the future")
	}
	if in.Price != nil && !in.Price.IsPositive() {
		errs.Add("price", "price must be positive")
	}
	if utf8.RuneCountInString(in.VideoRequirements) > 1000 {
		errs.Add("video_requirements", "video requirements must be at most 1000 characters")
	}
	for field, msgs := range fileErrors(in.Files) {
		for _, m := range msgs {
			errs.Add(field, m)
		}
	}

	return errs.Err()
}

func validateFiles(files []models.FileRef) error {
	return fileErrors(files).Err()
}

func fileErrors(files []models.FileRef) apperr.FieldErrors {
	errs := apperr.FieldErrors{}
	for _, f := range files {
		if strings.TrimSpace(f.FileName) == "" || strings.TrimSpace(f.FileURL) == "" {
			errs.Add("files", "file name and url are required")
			break
		}
		if f.FileSize > models.MaxFileSize {
			errs.Add("files", "file size must be less than 25MB")
			break
		}
	}
	return errs
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, strings.TrimSpace(t))
	}
	return out
}
