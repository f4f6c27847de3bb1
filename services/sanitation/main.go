package sanitation

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"candig/metadata/models/schemas"
	"candig/metadata/repositories"
)

type (
	SanitationService struct {
		Initialized bool
		Repository  repositories.Repository
		Logger      *logrus.Logger
	}
)

func NewSanitationService(repository repositories.Repository, logger *logrus.Logger) *SanitationService {
	ss := &SanitationService{
		Initialized: false,
		Repository:  repository,
		Logger:      logger,
	}

	ss.Init()

	return ss
}

func (ss *SanitationService) Init() {
	// initialization if necessary
	if !ss.Initialized {
		// - spin up a go routine that will periodically
		//   run through a series of steps to ensure
		//   the registry is "sanitary" ; i.e. that clinical
		//   rows still point at a patient that exists, since
		//   bulk ingests can land tables in any order
		go func() {
			// setup cron job
			s := gocron.NewScheduler(time.UTC)

			// report clinical rows with broken patient links
			s.Every(1).Days().At("04:00:00").Do(func() { // 12am EST
				fmt.Printf("[%s] - Running orphan clinical row check..\n", time.Now())

				orphans, err := ss.OrphanRecords(context.Background())
				if err != nil {
					fmt.Printf("[%s] - Error checking orphan rows : %v..\n", time.Now(), err)
					return
				}

				for table, count := range orphans {
					ss.Logger.WithFields(logrus.Fields{
						"table":   table,
						"orphans": count,
					}).Warn("clinical rows with no matching patient")
				}
			})

			s.StartBlocking()
		}()
		ss.Initialized = true
	}
}

// OrphanRecords counts, per clinical table, the rows whose patientId
// does not resolve to a row of the patients table, across every
// dataset. The patients table itself is exempt.
func (ss *SanitationService) OrphanRecords(ctx context.Context) (map[string]int, error) {
	orphans := map[string]int{}

	datasets, err := ss.Repository.Datasets(ctx)
	if err != nil {
		return nil, err
	}

	for _, dataset := range datasets {
		patients, err := ss.Repository.ScanRecords(ctx, dataset.Id, "patients")
		if err != nil {
			return nil, err
		}
		known := map[string]struct{}{}
		for _, patient := range patients {
			known[patient.PatientId()] = struct{}{}
		}

		for _, tableName := range schemas.TableNames() {
			table, _ := schemas.GetTable(tableName)
			if tableName == "patients" || table.JoinKey != "patientId" {
				continue
			}

			rows, err := ss.Repository.ScanRecords(ctx, dataset.Id, tableName)
			if err != nil {
				return nil, err
			}
			for _, row := range rows {
				if _, ok := known[row.PatientId()]; !ok {
					orphans[tableName]++
				}
			}
		}
	}

	return orphans, nil
}
