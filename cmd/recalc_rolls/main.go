// Command recalc_rolls rebuilds roll numbers for every section, one school's
// sections, or a single section.
//
//	go run ./cmd/recalc_rolls --school <uuid>
//	go run ./cmd/recalc_rolls --section <uuid>
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"campusorbit_backend/internals/configs"
	database "campusorbit_backend/internals/databases"
	studentService "campusorbit_backend/internals/features/academics/students/service"
)

func parseOptionalUUID(name, v string) *uuid.UUID {
	if v == "" {
		return nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		log.Fatalf("[ERROR] --%s: %v", name, err)
	}
	return &id
}

func main() {
	os.Exit(run())
}

func run() int {
	school := flag.String("school", "", "only sections of this school id")
	section := flag.String("section", "", "only this section id")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall time limit")
	flag.Parse()

	configs.LoadEnv()
	db := configs.InitCommandDB()
	defer database.Close(db)

	filter := studentService.RecalcFilter{
		SchoolID:  parseOptionalUUID("school", *school),
		SectionID: parseOptionalUUID("section", *section),
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	results, failures, err := studentService.RecalculateAll(ctx, db, filter)
	for _, r := range results {
		fmt.Printf("%-36s  %-20s  updated %d of %d\n", r.SectionID, r.SectionName, r.UpdatedCount, r.TotalStudents)
	}
	for _, f := range failures {
		fmt.Printf("%-36s  FAILED: %s\n", f.SectionID, f.Error)
	}
	if err != nil {
		log.Printf("[ERROR] recalculate: %v", err)
		return 1
	}

	var updated int
	for _, r := range results {
		updated += r.UpdatedCount
	}
	log.Printf("[INFO] %d section(s) processed, %d roll number(s) changed, %d failure(s)", len(results), updated, len(failures))
	if len(failures) > 0 {
		return 1
	}
	return 0
}
