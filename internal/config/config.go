package config

import (
	"fmt"
	"os"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/viper"
)

const (
	// ListeningPortKey is the port where the HTTP interface will listen on.
	ListeningPortKey = "LISTENING_PORT"
	// DatadirKey is the local data directory to store the internal state of
	// the daemon.
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the
	// values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DBTypeKey is used to switch database type between those supported.
	DBTypeKey = "DB_TYPE"
	// TargetAssetKey is the identifier of the consol vault's target asset.
	TargetAssetKey = "TARGET_ASSET"
	// ReceiptAssetKey is the identifier of the redemption pool's receipt
	// token, required to run a pool-redemption queue.
	ReceiptAssetKey = "RECEIPT_ASSET"
	// WithdrawalGasFeeKey is the default bonded fee demanded per new
	// withdrawal request.
	WithdrawalGasFeeKey = "WITHDRAWAL_GAS_FEE"
	// MinimumWithdrawalAmountKey is the default floor on the amount of new
	// withdrawal requests.
	MinimumWithdrawalAmountKey = "MINIMUM_WITHDRAWAL_AMOUNT"
	// QueueAdminsKey is the list of accounts granted the queue-admin role.
	QueueAdminsKey = "QUEUE_ADMINS"
	// TreasuryAccountsKey is the list of accounts granted the treasury role.
	TreasuryAccountsKey = "TREASURY_ACCOUNTS"

	// DBBadger ...
	DBBadger = "badger"
	// DBInMemory ...
	DBInMemory = "inmemory"

	// DbLocation is the dir under the datadir holding the badger stores.
	DbLocation = "db"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("consold", false)

// InitConfig initializes the daemon configuration from CONSOL_* env vars
// with sane defaults.
func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("CONSOL")
	vip.AutomaticEnv()

	vip.SetDefault(ListeningPortKey, 9000)
	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DBTypeKey, DBBadger)
	vip.SetDefault(TargetAssetKey, "consol-native")
	vip.SetDefault(ReceiptAssetKey, "")
	vip.SetDefault(WithdrawalGasFeeKey, 0)
	vip.SetDefault(MinimumWithdrawalAmountKey, 0)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetUint64(key string) uint64 {
	return vip.GetUint64(key)
}

func GetStringSlice(key string) []string {
	return vip.GetStringSlice(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	switch dbType := GetString(DBTypeKey); dbType {
	case DBBadger, DBInMemory:
	default:
		return fmt.Errorf("unsupported db type %s", dbType)
	}

	if len(GetString(TargetAssetKey)) <= 0 {
		return fmt.Errorf("missing target asset")
	}

	return nil
}

func initDatadir() error {
	return makeDirectoryIfNotExists(GetDatadir())
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
