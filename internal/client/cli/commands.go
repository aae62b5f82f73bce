package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dkrivenko/marksync/internal/client/models"
	"github.com/dkrivenko/marksync/internal/client/services"
	"github.com/dkrivenko/marksync/internal/common"
)

// Login authenticates online when the server is reachable and falls back to
// the offline credential cache otherwise.
func (a *App) Login(ctx context.Context) {
	userName, err := GetSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	defer common.WipeByteArray(password)

	session, err := a.auth.OnlineLogin(ctx, userName, password)
	if err != nil {
		if !errors.Is(err, common.ErrUnavailable) {
			fmt.Printf("Login unsuccessful: %v\n", err)
			return
		}

		fmt.Println("Server unavailable, trying offline login...")
		session, err = a.auth.OfflineLogin(ctx, userName, password)
		switch {
		case errors.Is(err, common.ErrLocalDataNotAvailable):
			fmt.Println("This user has never logged in on this device.")
			return
		case errors.Is(err, common.ErrUnauthorized):
			fmt.Println("Wrong credential.")
			return
		case err != nil:
			fmt.Printf("Offline login unsuccessful: %v\n", err)
			return
		}
		a.setMode(ModeOffline)
	} else {
		a.setMode(ModeOnline)
	}

	a.userName = session.Username
	fmt.Printf("Logged in as %s (%s)\n", session.Username, session.Role)
}

func (a *App) Logout(ctx context.Context) {
	if err := a.auth.Logout(ctx); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	a.userName = ""
	fmt.Println("Logged out.")
}

// Sync triggers a forced cycle from the terminal.
func (a *App) Sync(ctx context.Context) {
	if !a.monitor.Online(ctx) {
		fmt.Println("Offline: sync will run when connectivity returns.")
		return
	}
	if err := a.orchestrator.Run(ctx, true); err != nil {
		if errors.Is(err, common.ErrSyncInProgress) {
			fmt.Println("A sync cycle is already running.")
			return
		}
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println("Sync cycle finished.")
}

// Outbox lists local submissions with their sync status.
func (a *App) Outbox(ctx context.Context) {
	subs, err := a.submissions.List(ctx)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if len(subs) == 0 {
		fmt.Println("No local submissions.")
		return
	}
	for _, s := range subs {
		line := fmt.Sprintf("#%d %s assessment=%d status=%s", s.LocalID, s.StudentName, s.AssessmentID, s.Status)
		if s.ServerID != nil {
			line += fmt.Sprintf(" server_id=%d", *s.ServerID)
		}
		if s.LastError != "" {
			line += " error=" + s.LastError
		}
		fmt.Println(line)
	}
}

// Review lists the mirrored server submissions available for grading.
func (a *App) Review(ctx context.Context) {
	subs, err := a.grading.Review(ctx)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if len(subs) == 0 {
		fmt.Println("Nothing to review; run sync first.")
		return
	}
	for _, s := range subs {
		fmt.Printf("#%d %s assessment=%d answers=%d complete=%v\n",
			s.ServerID, s.StudentName, s.AssessmentID, len(s.Answers), s.Complete)
	}
}

// Grade records a mark for one answer of a server-owned submission:
// grade <server id> <field id> <marks> [complete].
func (a *App) Grade(ctx context.Context, args []string) {
	if len(args) < 3 {
		fmt.Println("Usage: grade <server id> <field id> <marks> [complete]")
		return
	}
	serverID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("invalid server id: %v\n", err)
		return
	}
	marks, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		fmt.Printf("invalid marks: %v\n", err)
		return
	}
	complete := len(args) > 3 && args[3] == "complete"

	err = a.grading.Grade(ctx, models.RemoteRef(serverID), args[1], marks, complete)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println("Grade recorded; it will be pushed on the next sync.")
}

func (a *App) Assessments(ctx context.Context) {
	list, err := a.repos.Reference.GetAssessments(ctx)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if len(list) == 0 {
		fmt.Println("No assessments cached; run sync first.")
		return
	}
	for _, as := range list {
		fmt.Printf("#%d %s (%s, %d questions)\n", as.ID, as.Title, as.Subject, len(as.Questions))
	}
}

// Fill walks an assessment's questions interactively and records a finished
// form as an offline submission: fill <assessment id>.
func (a *App) Fill(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: fill <assessment id>")
		return
	}
	assessmentID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("invalid assessment id: %v\n", err)
		return
	}

	assessment, err := a.repos.Reference.GetAssessment(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			fmt.Println("Unknown assessment; run sync to refresh the list.")
			return
		}
		fmt.Printf("error: %v\n", err)
		return
	}

	studentName, err := GetSimpleText(a.reader, "Student name", os.Stdout)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	answers := map[string]models.Answer{}
	var attachments []services.Attachment

	for _, q := range assessment.Questions {
		value, err := GetSimpleText(a.reader, fmt.Sprintf("%s (max %.0f marks)", q.Prompt, q.MaxMarks), os.Stdout)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		answers[q.ID] = models.Answer{Value: value}

		path, err := GetSimpleText(a.reader, "Attach a file (path, empty to skip)", os.Stdout)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("cannot read %s: %v\n", path, err)
			return
		}
		attachments = append(attachments, services.Attachment{
			FieldID:  q.ID,
			Filename: filepath.Base(path),
			Data:     data,
		})
	}

	sub, err := a.submissions.Create(ctx, assessmentID, studentName, answers, attachments)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("Saved locally as #%d; it will be submitted on the next sync.\n", sub.LocalID)
}

func (a *App) Schools(ctx context.Context) {
	schools, err := a.repos.Reference.GetSchools(ctx)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	for _, s := range schools {
		fmt.Printf("#%d %s (%s)\n", s.ID, s.Name, s.Region)
	}
}
