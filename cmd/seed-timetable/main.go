package main

import (
	"context"
	"fmt"
	"time"

	"github.com/stemsi/elms-backend/internal/config"
	"github.com/stemsi/elms-backend/internal/database"
	"github.com/stemsi/elms-backend/internal/logger"
	"github.com/stemsi/elms-backend/internal/model"
	"github.com/stemsi/elms-backend/internal/repository"
	"github.com/stemsi/elms-backend/internal/service"
)

// Seeds a demo timetable: two venues with rooms, a handful of sessions and
// registered students, enough to exercise the editor and the monitor.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	timetableRepo := repository.NewTimetableRepository(pool)
	sessionRepo := repository.NewExamSessionRepository(pool)
	venueRepo := repository.NewVenueRepository(pool)
	invigilatorRepo := repository.NewInvigilatorRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool)

	timetableService := service.NewTimetableService(timetableRepo, sessionRepo, venueRepo, invigilatorRepo, regRepo, log)

	fmt.Println("=== Seeding Demo Timetable ===")

	// ─── Venues and Rooms ──────────────────────────────────────────────
	mainHall := &model.Venue{Name: "Main Hall", Location: "North Campus", Capacity: 400}
	if err := venueRepo.CreateVenue(ctx, mainHall); err != nil {
		log.Fatal().Err(err).Msg("Failed to create Main Hall")
	}
	scienceBlock := &model.Venue{Name: "Science Block", Location: "South Campus", Capacity: 150}
	if err := venueRepo.CreateVenue(ctx, scienceBlock); err != nil {
		log.Fatal().Err(err).Msg("Failed to create Science Block")
	}

	rooms := map[string]*model.Room{}
	for _, spec := range []struct {
		venue    *model.Venue
		name     string
		capacity int
	}{
		{mainHall, "Hall A", 200},
		{mainHall, "Hall B", 200},
		{scienceBlock, "Lab 1", 60},
		{scienceBlock, "Lab 2", 40},
	} {
		room := &model.Room{VenueID: spec.venue.ID, Name: spec.name, Capacity: spec.capacity}
		if err := venueRepo.CreateRoom(ctx, room); err != nil {
			log.Fatal().Err(err).Str("room", spec.name).Msg("Failed to create room")
		}
		rooms[spec.name] = room
	}
	fmt.Printf("Created 2 venues, %d rooms\n", len(rooms))

	// ─── Timetable ─────────────────────────────────────────────────────
	timetable := &model.Timetable{Name: "Semester 1 Finals", AcademicTerm: "2026/2027-1"}
	if err := timetableService.CreateTimetable(ctx, timetable); err != nil {
		log.Fatal().Err(err).Msg("Failed to create timetable")
	}
	fmt.Printf("Created timetable %s\n", timetable.ID)

	// ─── Sessions ──────────────────────────────────────────────────────
	level300 := 300
	sessions := []*model.CreateSessionRequest{
		{
			CourseCode: "CSC301", CourseName: "Operating Systems",
			ExamDate: "2026-11-02", StartTime: "09:00", EndTime: "12:00",
			VenueID: mainHall.ID,
			Rooms: []model.RoomAllocationRequest{
				{RoomID: rooms["Hall A"].ID},
				{RoomID: rooms["Hall B"].ID, AllocatedCapacity: 120},
			},
			ExpectedAttendance: 280,
			Invigilators:       []string{"STF-014", "STF-022", "STF-031"},
			Level:              &level300,
		},
		{
			CourseCode: "CHM110", CourseName: "General Chemistry",
			ExamDate: "2026-11-02", StartTime: "13:00", EndTime: "15:00",
			VenueID: scienceBlock.ID,
			Rooms: []model.RoomAllocationRequest{
				{RoomID: rooms["Lab 1"].ID},
			},
			ExpectedAttendance: 55,
			Invigilators:       []string{"STF-014"},
		},
		{
			CourseCode: "PHY205", CourseName: "Electromagnetism",
			ExamDate: "2026-11-03", StartTime: "09:00", EndTime: "11:30",
			VenueID: scienceBlock.ID,
			Rooms: []model.RoomAllocationRequest{
				{RoomID: rooms["Lab 1"].ID},
				{RoomID: rooms["Lab 2"].ID},
			},
			ExpectedAttendance: 90,
			Invigilators:       []string{"STF-022"},
		},
	}

	created := 0
	var firstSession *model.ExamSession
	for _, req := range sessions {
		session, result, err := timetableService.CreateSession(ctx, timetable.ID, req)
		if err != nil {
			log.Fatal().Err(err).Str("course", req.CourseCode).Msg("Failed to create session")
		}
		if !result.IsValid {
			log.Fatal().Strs("errors", result.Errors).Str("course", req.CourseCode).Msg("Seed session rejected")
		}
		if firstSession == nil {
			firstSession = session
		}
		created++
	}
	fmt.Printf("Created %d sessions\n", created)

	// ─── Registrations ─────────────────────────────────────────────────
	studentIDs := make([]string, 0, 40)
	for i := 1; i <= 40; i++ {
		studentIDs = append(studentIDs, fmt.Sprintf("STU-%04d", i))
	}
	registered, err := regRepo.RegisterBatch(ctx, firstSession.ID, studentIDs)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register students")
	}
	fmt.Printf("Registered %d students for %s\n", registered, firstSession.CourseCode)

	fmt.Println("=== Done ===")
}
