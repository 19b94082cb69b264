package database

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/arnavshah/staffing-engine-go/pkg/config"
)

// Client represents the clients table
type Client struct {
	ID   string `gorm:"primaryKey;size:36" json:"id"`
	Name string `gorm:"not null" json:"name"`
}

func (Client) TableName() string { return "clients" }

// Site represents the sites table. Access and security notes make up the
// site blueprint shown with every shift.
type Site struct {
	ID            string `gorm:"primaryKey;size:36" json:"id"`
	ClientID      string `gorm:"size:36;index" json:"client_id"`
	Name          string `gorm:"not null" json:"name"`
	Code          string `json:"code"`
	AccessNotes   string `json:"access_notes"`
	SecurityNotes string `json:"security_notes"`
}

func (Site) TableName() string { return "sites" }

// Staff represents the staff table
type Staff struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	HourlyRate float64   `json:"hourly_rate"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Staff) TableName() string { return "staff" }

// Ticket represents the tickets table including the planning columns
type Ticket struct {
	ID                 string    `gorm:"primaryKey;size:36" json:"id"`
	SiteID             string    `gorm:"size:36;index" json:"site_id"`
	PositionCode       string    `json:"position_code"`
	ScheduledDate      string    `gorm:"size:10;index;not null" json:"scheduled_date"`
	StartTime          string    `gorm:"size:8" json:"start_time"`
	EndTime            string    `gorm:"size:8" json:"end_time"`
	Status             string    `gorm:"size:32" json:"status"`
	PlanningStatus     *string   `gorm:"size:32" json:"planning_status"`
	RequiredStaffCount *int      `json:"required_staff_count"`
	CreatedAt          time.Time `json:"created_at"`
}

func (Ticket) TableName() string { return "tickets" }

// LegacyTicket is the tickets table as it existed before planning status
type LegacyTicket struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	SiteID        string    `gorm:"size:36;index" json:"site_id"`
	PositionCode  string    `json:"position_code"`
	ScheduledDate string    `gorm:"size:10;index;not null" json:"scheduled_date"`
	StartTime     string    `gorm:"size:8" json:"start_time"`
	EndTime       string    `gorm:"size:8" json:"end_time"`
	Status        string    `gorm:"size:32" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

func (LegacyTicket) TableName() string { return "tickets" }

// Assignment represents the assignments table, one row per staff per ticket
type Assignment struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	TicketID     string    `gorm:"size:36;index;not null" json:"ticket_id"`
	StaffID      string    `gorm:"size:36;index;not null" json:"staff_id"`
	PositionCode string    `json:"position_code"`
	Status       string    `gorm:"size:32" json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Assignment) TableName() string { return "assignments" }

// StaffPosition represents the staff_positions eligibility table. Rows are
// read back in insertion order, which is the order auto-fill tries staff in.
type StaffPosition struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	StaffID      string    `gorm:"size:36;uniqueIndex:idx_staff_position;not null" json:"staff_id"`
	PositionCode string    `gorm:"uniqueIndex:idx_staff_position;not null" json:"position_code"`
	CreatedAt    time.Time `json:"created_at"`
}

func (StaffPosition) TableName() string { return "staff_positions" }

// StaffAvailability represents the staff_availability table
type StaffAvailability struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	StaffID     string `gorm:"size:36;index;not null" json:"staff_id"`
	DayOfWeek   int    `gorm:"not null" json:"day_of_week"`
	IsAvailable bool   `json:"is_available"`
}

func (StaffAvailability) TableName() string { return "staff_availability" }

// AutoFillUsage represents the autofill_usage table, one row per day
type AutoFillUsage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	RunDate      string `gorm:"uniqueIndex;not null" json:"run_date"`
	Runs         int    `gorm:"default:0" json:"runs"`
	OpenShifts   int    `gorm:"default:0" json:"open_shifts"`
	FilledShifts int    `gorm:"default:0" json:"filled_shifts"`
}

func (AutoFillUsage) TableName() string { return "autofill_usage" }

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// InitDB opens postgres when a URL is configured and sqlite otherwise, then
// migrates the schema. Unless cfg.MigratePlanningColumns is set the tickets
// table is only created in its legacy shape, never altered.
func InitDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	if cfg.URL != "" {
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.URL,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	} else {
		dbPath := cfg.Path
		if dbPath == "" {
			dbPath = "staffing.db"
		}
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	}

	if err != nil {
		return nil, eris.Wrap(err, "database: connect")
	}

	if err := Migrate(db, cfg.MigratePlanningColumns); err != nil {
		return nil, err
	}
	zap.L().Info("database: ready", zap.String("dialect", db.Dialector.Name()), zap.Bool("planning_columns", cfg.MigratePlanningColumns))

	return db, nil
}

// Migrate creates or updates every table the engine uses.
func Migrate(db *gorm.DB, planningColumns bool) error {
	var ticket any = &LegacyTicket{}
	if planningColumns {
		ticket = &Ticket{}
	}
	err := db.AutoMigrate(
		&Client{}, &Site{}, &Staff{}, ticket, &Assignment{},
		&StaffPosition{}, &StaffAvailability{}, &AutoFillUsage{}, &MasterUser{},
	)
	return eris.Wrap(err, "database: migrate")
}
