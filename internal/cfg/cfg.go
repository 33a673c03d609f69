package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
)

// Config — конфигурация сервиса мини-приложения (cmd/app).
type Config struct {
	Http   *HTTPConfig
	Grpc   *GRPCConfig
	Redis  *RedisCfg
	Kafka  *KafkaCfg // nil, если KAFKA_BROKERS не задан: заказы уходят только ссылкой на чат
	Remote *RemoteCfg
	Cart   *CartCfg
	Admin  *AdminCfg
}

// EndpointConfig — конфигурация точки сохранения (cmd/configd).
type EndpointConfig struct {
	Http  *HTTPConfig
	Store *StoreCfg
	Minio *MinIOCfg // только для CONFIG_BACKEND=minio
	Db    *PGDBCfg  // только для CONFIG_BACKEND=postgres
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

type MinIOCfg struct {
	MinioEndpoint     string // Адрес конечной точки Minio
	BucketName        string // Бакет со снимком конфигурации
	ObjectKey         string // Ключ объекта снимка
	MinioRootUser     string // Имя пользователя для доступа к Minio
	MinioRootPassword string // Пароль для доступа к Minio
	MinioUseSSL       bool
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type GRPCConfig struct {
	Port        string
	NetworkMode string
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	SnapshotKey string // ключ локальной копии снимка; без TTL
}

// RemoteCfg — удалённый источник истины конфигурации.
type RemoteCfg struct {
	URL        string
	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration
	RetryMax   time.Duration
}

type CartCfg struct {
	MaxLines        int
	MaxTotal        decimal.Decimal
	MaxItemQuantity decimal.Decimal
	SessionTTL      time.Duration
}

type AdminCfg struct {
	Bootstrap      []string // операторы из окружения, действуют при пустом списке в снимке
	IdentityHeader string   // заголовок с идентичностью пользователя чата
}

// StoreCfg — выбор хранилища точки сохранения.
type StoreCfg struct {
	Backend  string // file | minio | postgres
	FilePath string
}

const (
	BackendFile     = "file"
	BackendMinio    = "minio"
	BackendPostgres = "postgres"
)

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	http, err := loadHTTPConfig(log, "8080")
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	remote, err := loadRemoteCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	cart, err := loadCartCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Http:   http,
		Grpc:   loadGRPCConfig(),
		Redis:  redis,
		Kafka:  kafka,
		Remote: remote,
		Cart:   cart,
		Admin:  loadAdminCfg(),
	}, nil
}

// LoadEndpoint загружает конфигурацию точки сохранения.
func LoadEndpoint(log logger.Logger) (*EndpointConfig, error) {
	http, err := loadHTTPConfig(log, "8081")
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	store, err := loadStoreCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	res := &EndpointConfig{
		Http:  http,
		Store: store,
	}

	switch store.Backend {
	case BackendMinio:
		res.Minio, err = loadMinIOCfg(log)
	case BackendPostgres:
		res.Db, err = loadPGDBCfg(log)
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return res, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
		defaultTopic             = "miniapp.orders"
	)

	brokerStr := os.Getenv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, nil
	}
	brokers := splitList(brokerStr)

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL    = false
		defaultEndpoint  = "minio:9000"
		defaultBucket    = "miniapp-config"
		defaultObjectKey = "config.json"
	)

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:     getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint),
		BucketName:        getEnvOrDefault("BUCKET_NAME", defaultBucket),
		ObjectKey:         getEnvOrDefault("CONFIG_OBJECT_KEY", defaultObjectKey),
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
	}, nil
}

func loadHTTPConfig(log logger.Logger, defaultPort string) (*HTTPConfig, error) {
	const (
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 10 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func loadGRPCConfig() *GRPCConfig {
	const (
		defaultPort        = "8091"
		defaultNetworkMode = "tcp"
	)

	return &GRPCConfig{
		Port:        getEnvOrDefault("GRPC_PORT", defaultPort),
		NetworkMode: getEnvOrDefault("GRPC_NETWORK_MODE", defaultNetworkMode),
	}
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost    = "localhost"
		defaultPort    = "5432"
		defaultSSLMode = "disable"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	return &PGDBCfg{
		Host:     getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:     getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:     user,
		Password: password,
		DBName:   dbName,
		SSLMode:  getEnvOrDefault("SSL_MODE", defaultSSLMode),
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
		defaultSnapshotKey  = "miniapp:config:snapshot"
	)

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:        getEnvOrDefault("REDIS_ADDR", defaultAddr),
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
		SnapshotKey: getEnvOrDefault("REDIS_SNAPSHOT_KEY", defaultSnapshotKey),
	}, nil
}

func loadRemoteCfg(log logger.Logger) (*RemoteCfg, error) {
	const (
		defaultURL        = "http://localhost:8081/api/v1/config"
		defaultTimeout    = 5 * time.Second
		defaultMaxRetries = 2
		defaultRetryBase  = 200 * time.Millisecond
		defaultRetryMax   = 2 * time.Second
	)

	timeout, err := parseDurationEnv("CONFIG_REMOTE_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid CONFIG_REMOTE_TIMEOUT")
		return nil, err
	}

	maxRetries, err := parseIntEnv("CONFIG_REMOTE_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid CONFIG_REMOTE_RETRIES")
		return nil, err
	}

	retryBase, err := parseDurationEnv("CONFIG_REMOTE_RETRY_BASE", defaultRetryBase)
	if err != nil {
		log.Errorf(err, "invalid CONFIG_REMOTE_RETRY_BASE")
		return nil, err
	}

	return &RemoteCfg{
		URL:        getEnvOrDefault("CONFIG_REMOTE_URL", defaultURL),
		Timeout:    timeout,
		MaxRetries: maxRetries,
		RetryBase:  retryBase,
		RetryMax:   defaultRetryMax,
	}, nil
}

func loadCartCfg(log logger.Logger) (*CartCfg, error) {
	const (
		defaultMaxLines        = 50
		defaultMaxTotal        = "10000"
		defaultMaxItemQuantity = "1000"
		defaultSessionTTL      = 24 * time.Hour
	)

	maxLines, err := parseIntEnv("CART_MAX_LINES", defaultMaxLines)
	if err != nil {
		log.Errorf(err, "invalid CART_MAX_LINES")
		return nil, err
	}

	maxTotal, err := parseDecimalEnv("CART_MAX_TOTAL", defaultMaxTotal)
	if err != nil {
		log.Errorf(err, "invalid CART_MAX_TOTAL")
		return nil, err
	}

	maxItemQuantity, err := parseDecimalEnv("CART_MAX_ITEM_QUANTITY", defaultMaxItemQuantity)
	if err != nil {
		log.Errorf(err, "invalid CART_MAX_ITEM_QUANTITY")
		return nil, err
	}

	sessionTTL, err := parseDurationEnv("CART_SESSION_TTL", defaultSessionTTL)
	if err != nil {
		log.Errorf(err, "invalid CART_SESSION_TTL")
		return nil, err
	}

	return &CartCfg{
		MaxLines:        maxLines,
		MaxTotal:        maxTotal,
		MaxItemQuantity: maxItemQuantity,
		SessionTTL:      sessionTTL,
	}, nil
}

func loadAdminCfg() *AdminCfg {
	const defaultIdentityHeader = "X-Telegram-User"

	return &AdminCfg{
		Bootstrap:      splitList(getEnv("ADMIN_BOOTSTRAP")),
		IdentityHeader: getEnvOrDefault("IDENTITY_HEADER", defaultIdentityHeader),
	}
}

func loadStoreCfg() (*StoreCfg, error) {
	const (
		defaultBackend  = BackendFile
		defaultFilePath = "config.json"
	)

	backend := strings.ToLower(getEnvOrDefault("CONFIG_BACKEND", defaultBackend))
	switch backend {
	case BackendFile, BackendMinio, BackendPostgres:
	default:
		return nil, e.Wrap("CONFIG_BACKEND", e.ErrIncorrectEnvVariable)
	}

	return &StoreCfg{
		Backend:  backend,
		FilePath: getEnvOrDefault("CONFIG_FILE_PATH", defaultFilePath),
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}

// parseDecimalEnv считывает положительное десятичное число.
func parseDecimalEnv(key string, defaultValue string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(getEnvOrDefault(key, defaultValue))
	if err != nil || !value.IsPositive() {
		return decimal.Zero, e.Wrap(key, e.ErrIncorrectEnvVariable)
	}

	return value, nil
}

// splitList разбирает список через запятую, пропуская пустые элементы.
func splitList(s string) []string {
	var res []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			res = append(res, part)
		}
	}

	return res
}
