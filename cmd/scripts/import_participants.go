package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/raffleworks/raffle-backend/internal/config"
	"github.com/raffleworks/raffle-backend/internal/models"
	mongorepo "github.com/raffleworks/raffle-backend/internal/repositories/mongodb"
	"github.com/raffleworks/raffle-backend/pkg/mongodb"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bulk-loads participants for an event from a CSV file. Expected columns:
// name,department_id,department_name (header row required, department
// columns may be empty). IMPORT_BATCH_SIZE controls the insert batch size
// and IMPORT_MARK_ELIGIBLE whether imported rows start raffle-eligible.
func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	orgHex := flag.String("org", "", "organization ObjectID (hex)")
	eventHex := flag.String("event", "", "event ObjectID (hex)")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("CSV file path is required as a command line argument")
	}
	csvFilePath := flag.Arg(0)

	orgID, err := primitive.ObjectIDFromHex(*orgHex)
	if err != nil {
		log.Fatal("-org must be a valid ObjectID hex string")
	}
	eventID, err := primitive.ObjectIDFromHex(*eventHex)
	if err != nil {
		log.Fatal("-event must be a valid ObjectID hex string")
	}

	mongoURI := config.GetEnv("MONGODB_URI", "mongodb://localhost:27017")
	dbName := config.GetEnv("MONGODB_DATABASE", "raffleworks")
	batchSize := config.GetEnvAsInt("IMPORT_BATCH_SIZE", 500)
	if batchSize < 1 {
		batchSize = 500
	}
	markEligible := config.GetEnvAsBool("IMPORT_MARK_ELIGIBLE", true)

	client, err := mongodb.NewClient(mongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(dbName)
	participantRepo := mongorepo.NewParticipantRepository(db)

	participants, skipped, err := readParticipants(csvFilePath, orgID, eventID, markEligible)
	if err != nil {
		log.Fatalf("Failed to read CSV: %v", err)
	}
	if len(participants) == 0 {
		log.Fatal("No importable rows found")
	}

	for start := 0; start < len(participants); start += batchSize {
		end := start + batchSize
		if end > len(participants) {
			end = len(participants)
		}
		if err := participantRepo.CreateMany(context.Background(), participants[start:end]); err != nil {
			log.Fatalf("Failed to import participants (batch starting at row %d): %v", start, err)
		}
	}

	log.Printf("Imported %d participants (%d rows skipped)", len(participants), skipped)
}

func readParticipants(csvFilePath string, orgID, eventID primitive.ObjectID, markEligible bool) ([]*models.Participant, int, error) {
	file, err := os.Open(csvFilePath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse CSV file: %w", err)
	}
	if len(records) < 2 {
		return nil, 0, fmt.Errorf("CSV file is empty or has only a header")
	}

	header := records[0]
	nameIdx := findColumnIndex(header, []string{"name", "participant", "participant_name"})
	deptIDIdx := findColumnIndex(header, []string{"department_id", "dept_id"})
	deptNameIdx := findColumnIndex(header, []string{"department_name", "department", "dept"})
	if nameIdx == -1 {
		return nil, 0, fmt.Errorf("name column not found in CSV header")
	}

	now := time.Now()
	participants := make([]*models.Participant, 0, len(records)-1)
	skipped := 0
	for i, record := range records[1:] {
		if nameIdx >= len(record) || strings.TrimSpace(record[nameIdx]) == "" {
			log.Printf("Warning: row %d has no name, skipping", i+2)
			skipped++
			continue
		}
		p := &models.Participant{
			OrgID:            orgID,
			EventID:          eventID,
			Name:             strings.TrimSpace(record[nameIdx]),
			IsRaffleEligible: markEligible,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if deptIDIdx != -1 && deptIDIdx < len(record) {
			if raw := strings.TrimSpace(record[deptIDIdx]); raw != "" {
				deptID, err := primitive.ObjectIDFromHex(raw)
				if err != nil {
					log.Printf("Warning: row %d has an invalid department_id, leaving it unset", i+2)
				} else {
					p.DepartmentID = deptID
				}
			}
		}
		if deptNameIdx != -1 && deptNameIdx < len(record) {
			p.DepartmentName = strings.TrimSpace(record[deptNameIdx])
		}
		participants = append(participants, p)
	}
	return participants, skipped, nil
}

func findColumnIndex(header []string, candidates []string) int {
	for i, col := range header {
		for _, candidate := range candidates {
			if strings.EqualFold(strings.TrimSpace(col), candidate) {
				return i
			}
		}
	}
	return -1
}
