package memory

import (
	"context"
	"sort"

	"github.com/innopoints/innopoints-api/internal/domain"
	"github.com/innopoints/innopoints-api/internal/pkg/apperr"
)

// withFeedback fills the derived HasFeedback flag.
func (s *Store) withFeedback(app domain.Application) domain.Application {
	_, app.HasFeedback = s.st.feedback[app.ID]
	return app
}

func (s *Store) CreateApplication(ctx context.Context, app domain.Application) (domain.Application, error) {
	defer s.lock(ctx)()

	if _, ok := s.st.activities[app.ActivityID]; !ok {
		return domain.Application{}, apperr.Integrity("activity %d does not exist", app.ActivityID)
	}
	if _, ok := s.st.accounts[app.ApplicantEmail]; !ok {
		return domain.Application{}, apperr.Integrity("account %s does not exist", app.ApplicantEmail)
	}
	for _, other := range s.st.applications {
		if other.ActivityID == app.ActivityID && other.ApplicantEmail == app.ApplicantEmail {
			return domain.Application{}, apperr.Conflict("%s already applied to activity %d", app.ApplicantEmail, app.ActivityID)
		}
	}

	app.ID = s.nextIDLocked()
	app.HasFeedback = false
	app.CreatedAt = s.now().UTC()
	s.st.applications[app.ID] = app
	return app, nil
}

func (s *Store) FindApplication(ctx context.Context, id uint) (domain.Application, error) {
	defer s.lock(ctx)()

	app, ok := s.st.applications[id]
	if !ok {
		return domain.Application{}, apperr.NotFound("application %d not found", id)
	}
	return s.withFeedback(app), nil
}

func (s *Store) FindApplicationByApplicant(ctx context.Context, activityID uint, email string) (domain.Application, error) {
	defer s.lock(ctx)()

	for _, app := range s.st.applications {
		if app.ActivityID == activityID && app.ApplicantEmail == email {
			return s.withFeedback(app), nil
		}
	}
	return domain.Application{}, apperr.NotFound("%s has not applied to activity %d", email, activityID)
}

func (s *Store) UpdateApplication(ctx context.Context, app domain.Application) error {
	defer s.lock(ctx)()

	old, ok := s.st.applications[app.ID]
	if !ok {
		return apperr.NotFound("application %d not found", app.ID)
	}
	old.Status = app.Status
	old.ActualHours = app.ActualHours
	old.Comment = app.Comment
	old.Telegram = app.Telegram
	s.st.applications[app.ID] = old
	return nil
}

func (s *Store) DeleteApplication(ctx context.Context, id uint) error {
	defer s.lock(ctx)()

	if _, ok := s.st.applications[id]; !ok {
		return apperr.NotFound("application %d not found", id)
	}
	if _, ok := s.st.feedback[id]; ok {
		return apperr.Integrity("application %d has feedback", id)
	}
	for key := range s.st.reports {
		if key.applicationID == id {
			return apperr.Integrity("application %d has reports", id)
		}
	}
	delete(s.st.applications, id)
	return nil
}

func (s *Store) ListApplications(ctx context.Context, activityID uint) ([]domain.Application, error) {
	defer s.lock(ctx)()

	var out []domain.Application
	for _, app := range s.st.applications {
		if app.ActivityID == activityID {
			out = append(out, s.withFeedback(app))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CountApplications(ctx context.Context, activityID uint, status domain.ApplicationStatus) (int, error) {
	defer s.lock(ctx)()

	n := 0
	for _, app := range s.st.applications {
		if app.ActivityID == activityID && app.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountAwaitingFeedback(ctx context.Context, projectID uint) (int, error) {
	defer s.lock(ctx)()

	n := 0
	for _, app := range s.st.applications {
		if app.Status != domain.ApplicationApproved {
			continue
		}
		if s.st.activities[app.ActivityID].ProjectID != projectID {
			continue
		}
		if _, ok := s.st.feedback[app.ID]; !ok {
			n++
		}
	}
	return n, nil
}

func (s *Store) SyncActualHours(ctx context.Context, activityID uint, hours int) error {
	defer s.lock(ctx)()

	for id, app := range s.st.applications {
		if app.ActivityID == activityID && app.Status != domain.ApplicationRejected {
			app.ActualHours = hours
			s.st.applications[id] = app
		}
	}
	return nil
}

// Feedback and reports ------------------------------------------------------

func (s *Store) InsertFeedback(ctx context.Context, feedback domain.Feedback) (domain.Feedback, error) {
	defer s.lock(ctx)()

	if _, ok := s.st.applications[feedback.ApplicationID]; !ok {
		return domain.Feedback{}, apperr.Integrity("application %d does not exist", feedback.ApplicationID)
	}
	if _, exists := s.st.feedback[feedback.ApplicationID]; exists {
		return domain.Feedback{}, apperr.Conflict("feedback for application %d already exists", feedback.ApplicationID)
	}

	feedback.Answers = append([]string(nil), feedback.Answers...)
	feedback.CreatedAt = s.now().UTC()
	s.st.feedback[feedback.ApplicationID] = feedback
	return feedback, nil
}

func (s *Store) FindFeedback(ctx context.Context, applicationID uint) (domain.Feedback, error) {
	defer s.lock(ctx)()

	feedback, ok := s.st.feedback[applicationID]
	if !ok {
		return domain.Feedback{}, apperr.NotFound("no feedback for application %d", applicationID)
	}
	return feedback, nil
}

func (s *Store) DeleteFeedback(ctx context.Context, applicationID uint) error {
	defer s.lock(ctx)()

	if _, ok := s.st.feedback[applicationID]; !ok {
		return apperr.NotFound("no feedback for application %d", applicationID)
	}
	for _, tx := range s.st.transactions {
		if tx.FeedbackID != nil && *tx.FeedbackID == applicationID {
			return apperr.Integrity("feedback of application %d is rewarded", applicationID)
		}
	}
	delete(s.st.feedback, applicationID)
	return nil
}

func (s *Store) InsertReport(ctx context.Context, report domain.VolunteeringReport) (domain.VolunteeringReport, error) {
	defer s.lock(ctx)()

	if report.Rating < domain.MinReportRating || report.Rating > domain.MaxReportRating {
		return domain.VolunteeringReport{}, apperr.Integrity("rating %d out of range", report.Rating)
	}
	if _, ok := s.st.applications[report.ApplicationID]; !ok {
		return domain.VolunteeringReport{}, apperr.Integrity("application %d does not exist", report.ApplicationID)
	}
	key := reportKey{applicationID: report.ApplicationID, reporter: report.ReporterEmail}
	if _, exists := s.st.reports[key]; exists {
		return domain.VolunteeringReport{}, apperr.Conflict("%s already reported on application %d", report.ReporterEmail, report.ApplicationID)
	}

	report.CreatedAt = s.now().UTC()
	s.st.reports[key] = report
	return report, nil
}

func (s *Store) DeleteReports(ctx context.Context, applicationID uint) error {
	defer s.lock(ctx)()

	for key := range s.st.reports {
		if key.applicationID == applicationID {
			delete(s.st.reports, key)
		}
	}
	return nil
}
