package db

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking/internal/config"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// ChangeChannel is the postgres NOTIFY channel the appointments trigger
// writes to.
const ChangeChannel = "appointment_changes"

func NewDB(cfg *config.Config, log *zap.Logger) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt: true,
	})
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("failed to get sql.DB", zap.Error(err))
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.AutoMigrate(
		&models.Barbershop{},
		&models.User{},
		&models.Service{},
		&models.Appointment{},
		&models.AuditLog{},
	); err != nil {
		log.Fatal("failed to migrate", zap.Error(err))
	}

	for _, stmt := range hardening {
		if err := db.Exec(stmt).Error; err != nil {
			log.Fatal("failed to apply schema statement", zap.Error(err))
		}
	}

	db.Exec(`
        UPDATE barbershops
        SET timezone = ?
        WHERE timezone IS NULL OR timezone = ''
    `, cfg.DefaultTimezone)

	return db
}

// hardening backs the booking transaction at the schema level: at most one
// scheduled appointment per provider and start, and a NOTIFY on every change.
var hardening = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_appointments_barber_start
        ON appointments (barber_id, start_time)
        WHERE status = 'scheduled' AND barber_id IS NOT NULL`,

	`CREATE UNIQUE INDEX IF NOT EXISTS ux_appointments_shop_start
        ON appointments (shop_id, start_time)
        WHERE status = 'scheduled' AND shop_id IS NOT NULL`,

	`CREATE OR REPLACE FUNCTION notify_appointment_change() RETURNS trigger AS $$
        DECLARE
            rec RECORD;
        BEGIN
            IF TG_OP = 'DELETE' THEN
                rec := OLD;
            ELSE
                rec := NEW;
            END IF;
            PERFORM pg_notify('` + ChangeChannel + `', json_build_object(
                'op', lower(TG_OP),
                'id', rec.id,
                'shop_id', rec.shop_id,
                'barber_id', rec.barber_id
            )::text);
            RETURN rec;
        END;
        $$ LANGUAGE plpgsql`,

	`DROP TRIGGER IF EXISTS appointments_notify ON appointments`,

	`CREATE TRIGGER appointments_notify
        AFTER INSERT OR UPDATE OR DELETE ON appointments
        FOR EACH ROW EXECUTE FUNCTION notify_appointment_change()`,
}
