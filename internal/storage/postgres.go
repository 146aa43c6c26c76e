package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgtype"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/airwatchio/airwatch/internal/log"
	"github.com/airwatchio/airwatch/pkg/monitor"
	"github.com/airwatchio/airwatch/pkg/table"
)

// DeploymentRecord is the archive's metadata row for one device deployment.
// The descriptive metadata columns travel as a JSONB document so the
// archive survives column-set differences between feeds.
type DeploymentRecord struct {
	DeviceDeploymentID string       `gorm:"primaryKey;column:device_deployment_id"`
	Collection         string       `gorm:"primaryKey;column:collection"`
	Longitude          *float64     `gorm:"column:longitude"`
	Latitude           *float64     `gorm:"column:latitude"`
	Elevation          *float64     `gorm:"column:elevation"`
	Timezone           string       `gorm:"column:timezone"`
	Properties         pgtype.JSONB `gorm:"type:jsonb;default:'{}';not null"`
	UpdatedAt          time.Time
}

// TableName implements the GORM Tabler interface to specify the correct table name
func (DeploymentRecord) TableName() string {
	return "deployments"
}

// ObservationRecord is one hourly reading for one deployment.
type ObservationRecord struct {
	Collection         string    `gorm:"primaryKey;column:collection"`
	DeviceDeploymentID string    `gorm:"primaryKey;column:device_deployment_id"`
	ObservedAt         time.Time `gorm:"primaryKey;column:observed_at"`
	Value              *float64  `gorm:"column:value"`
}

// TableName implements the GORM Tabler interface to specify the correct table name
func (ObservationRecord) TableName() string {
	return "observations"
}

// ArchiveClient holds the connection to the observation archive database.
type ArchiveClient struct {
	connectionString string
	DB               *gorm.DB
	logger           *zap.SugaredLogger
}

// NewArchiveClient creates a new archive client.
func NewArchiveClient(connectionString string, zlogger *zap.SugaredLogger) *ArchiveClient {
	return &ArchiveClient{
		connectionString: connectionString,
		logger:           zlogger,
	}
}

// Connect connects to the archive database and migrates the schema.
func (c *ArchiveClient) Connect() error {
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: false,
			Colorful:                  true,
		},
	)

	var err error
	c.DB, err = gorm.Open(postgres.Open(c.connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return fmt.Errorf("unable to connect to archive database: %w", err)
	}
	if err := c.DB.AutoMigrate(&DeploymentRecord{}, &ObservationRecord{}); err != nil {
		return fmt.Errorf("unable to migrate archive schema: %w", err)
	}
	c.logger.Info("archive database connection successful")
	return nil
}

// ArchiveMonitor upserts the deployments and hourly observations of one
// collection's current dataset.
func (c *ArchiveClient) ArchiveMonitor(collection string, m *monitor.Monitor) error {
	deployments, err := deploymentRecords(collection, m)
	if err != nil {
		return err
	}
	if len(deployments) > 0 {
		err = c.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "device_deployment_id"}, {Name: "collection"}},
			UpdateAll: true,
		}).Create(&deployments).Error
		if err != nil {
			return fmt.Errorf("unable to upsert deployments: %w", err)
		}
	}

	observations := observationRecords(collection, m)
	if len(observations) == 0 {
		return nil
	}
	err = c.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "collection"}, {Name: "device_deployment_id"}, {Name: "observed_at"},
		},
		UpdateAll: true,
	}).CreateInBatches(&observations, 1000).Error
	if err != nil {
		return fmt.Errorf("unable to upsert observations: %w", err)
	}
	return nil
}

func deploymentRecords(collection string, m *monitor.Monitor) ([]DeploymentRecord, error) {
	ids := m.IDs()
	records := make([]DeploymentRecord, 0, len(ids))
	for i, id := range ids {
		rec := DeploymentRecord{
			DeviceDeploymentID: id,
			Collection:         collection,
			Longitude:          metaFloatPtr(m.Meta, "longitude", i),
			Latitude:           metaFloatPtr(m.Meta, "latitude", i),
			Elevation:          metaFloatPtr(m.Meta, "elevation", i),
		}

		props := make(map[string]string)
		for _, col := range m.Meta.Columns() {
			if col.Kind != table.KindString || !col.Valid[i] {
				continue
			}
			if col.Name == monitor.DeviceDeploymentIDColumn {
				continue
			}
			props[col.Name] = col.Strings[i]
		}
		rec.Timezone = props["timezone"]

		raw, err := json.Marshal(props)
		if err != nil {
			return nil, fmt.Errorf("unable to encode properties for %s: %w", id, err)
		}
		if err := rec.Properties.Set(raw); err != nil {
			return nil, fmt.Errorf("unable to set JSONB properties for %s: %w", id, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func observationRecords(collection string, m *monitor.Monitor) []ObservationRecord {
	times := m.Timestamps()
	var records []ObservationRecord
	for _, id := range m.IDs() {
		col, ok := m.Data.Col(id)
		if !ok {
			continue
		}
		for i := range times {
			rec := ObservationRecord{
				Collection:         collection,
				DeviceDeploymentID: id,
				ObservedAt:         times[i],
			}
			if col.Valid[i] {
				v := col.Floats[i]
				rec.Value = &v
			}
			records = append(records, rec)
		}
	}
	return records
}

func metaFloatPtr(meta *table.Table, name string, row int) *float64 {
	c, ok := meta.Col(name)
	if !ok || c.Kind != table.KindFloat || !c.Valid[row] {
		return nil
	}
	v := c.Floats[row]
	return &v
}
