package migration

import (
	"github.com/vetiver-net/vetiver/internal/infrastructure/persistence/models"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.UserModel{},
		&models.NodeModel{},
		&models.PanelModel{},
		&models.InstanceModel{},
		&models.TransactionModel{},
		&models.PaymentRequestModel{},
		&models.BankAccountModel{},
	}
}
