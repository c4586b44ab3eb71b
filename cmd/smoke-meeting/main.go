package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"civicgov.org/internal/meeting"
)

// Drives one full meeting through the engine against the in-memory store:
// schedule, notice, session, quorum, vote, minutes. Exits non-zero on the
// first violated expectation.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	svc := meeting.NewService(meeting.NewMemStore())
	tenant := "smoke"

	body, err := svc.CreateBody(ctx, meeting.CreateBodyInput{
		TenantID: tenant,
		Name:     "Smoke Council",
		Members: []meeting.Member{
			{ID: "m1"}, {ID: "m2"}, {ID: "m3"}, {ID: "m4"}, {ID: "m5"},
		},
	})
	if err != nil {
		log.Fatalf("create body: %v", err)
	}

	m, err := svc.ScheduleMeeting(ctx, meeting.ScheduleMeetingInput{
		TenantID:       tenant,
		BodyID:         body.ID,
		Kind:           meeting.KindRegular,
		Title:          "Smoke Meeting",
		ScheduledStart: time.Now().UTC().AddDate(0, 0, 14),
		CreatedBy:      "smoke",
	})
	if err != nil {
		log.Fatalf("schedule: %v", err)
	}

	if m, err = svc.MarkNoticePosted(ctx, m.ID, meeting.NoticeInput{
		TenantID: tenant, PostedBy: "smoke", Methods: []string{"website"},
	}); err != nil {
		log.Fatalf("notice: %v", err)
	}
	if m.Compliance.State != "compliant" {
		log.Fatalf("expected compliant notice, got %s: %s", m.Compliance.State, m.Compliance.Explanation)
	}

	if _, err = svc.StartMeeting(ctx, tenant, m.ID); err != nil {
		log.Fatalf("start: %v", err)
	}

	for _, member := range []string{"m1", "m2", "m3"} {
		if _, err = svc.RecordAttendance(ctx, tenant, m.ID, member, true); err != nil {
			log.Fatalf("attendance %s: %v", member, err)
		}
	}
	q, err := svc.CalculateQuorum(ctx, tenant, m.ID, "")
	if err != nil {
		log.Fatalf("quorum: %v", err)
	}
	if !q.HasQuorum {
		log.Fatalf("expected quorum with 3 of 5 present: %+v", q)
	}

	es, err := svc.CreateSession(ctx, m.ID, meeting.SessionInput{
		TenantID: tenant, Basis: "litigation", Subject: "Smoke claim",
	})
	if err != nil {
		log.Fatalf("create session: %v", err)
	}
	if _, err = svc.EnterSession(ctx, tenant, m.ID, es.ID, "Closing for litigation.", nil); err != nil {
		log.Fatalf("enter session: %v", err)
	}

	act, err := svc.CreateAction(ctx, m.ID, meeting.ActionInput{
		TenantID: tenant, Kind: meeting.ActionMotion, Title: "Smoke motion", MovedBy: "m1",
	})
	if err != nil {
		log.Fatalf("create action: %v", err)
	}
	if act, err = svc.SecondAction(ctx, tenant, m.ID, act.ID, "m2"); err != nil {
		log.Fatalf("second: %v", err)
	}

	// Voting must be blocked while the closed session is active.
	if _, err = svc.RecordVote(ctx, tenant, m.ID, act.ID, "m3", meeting.VoteYea); err == nil {
		log.Fatal("vote during active executive session must fail")
	}
	if _, err = svc.EndSession(ctx, tenant, m.ID, es.ID, "Reopened."); err != nil {
		log.Fatalf("end session: %v", err)
	}

	for _, member := range []string{"m1", "m2", "m3"} {
		if _, err = svc.RecordVote(ctx, tenant, m.ID, act.ID, member, meeting.VoteYea); err != nil {
			log.Fatalf("vote %s: %v", member, err)
		}
	}
	if act, err = svc.CloseVoting(ctx, tenant, m.ID, act.ID, ""); err != nil {
		log.Fatalf("close voting: %v", err)
	}
	if act.Result != meeting.ResultAdopted {
		log.Fatalf("expected adopted, got %s", act.Result)
	}

	if _, err = svc.AdjournMeeting(ctx, tenant, m.ID); err != nil {
		log.Fatalf("adjourn: %v", err)
	}
	if _, err = svc.UpsertMinutes(ctx, m.ID, meeting.MinutesInput{
		TenantID: tenant, Content: "Smoke minutes.", PreparedBy: "smoke",
	}); err != nil {
		log.Fatalf("minutes: %v", err)
	}
	if _, err = svc.SubmitMinutes(ctx, tenant, m.ID); err != nil {
		log.Fatalf("submit minutes: %v", err)
	}
	if _, err = svc.ApproveMinutes(ctx, tenant, m.ID, "chair"); err == nil {
		log.Fatal("approval must be blocked by the uncertified session")
	}
	if _, err = svc.CertifySession(ctx, tenant, m.ID, es.ID); err != nil {
		log.Fatalf("certify: %v", err)
	}
	if _, err = svc.ApproveMinutes(ctx, tenant, m.ID, "chair"); err != nil {
		log.Fatalf("approve minutes: %v", err)
	}

	fmt.Printf("✅ meeting engine smoke test passed: meeting=%s action=%s\n", m.ID, act.ID)
}
