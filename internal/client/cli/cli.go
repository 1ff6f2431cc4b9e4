package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/refkeeper/internal/client/api"
	"github.com/iudanet/refkeeper/internal/client/iocli"
	"github.com/iudanet/refkeeper/internal/client/storage"
	"github.com/iudanet/refkeeper/internal/client/storage/boltdb"
)

const (
	// DefaultServerURL адрес сервера по умолчанию
	DefaultServerURL = "http://localhost:8080"
	// DefaultDBPath файл локального хранилища сессии
	DefaultDBPath = "refkeeper-client.db"

	appName = "refkeeper"
)

// ErrNotLoggedIn локальной сессии нет или срок ее истек
var ErrNotLoggedIn = errors.New("not authenticated, please run 'refkeeper login' first")

// Cli консольный клиент refkeeper
type Cli struct {
	io        iocli.IO
	apiClient *api.Client
	authStore storage.AuthStorage
	closer    func() error
	now       func() time.Time
	version   string
	serverURL string
	dbPath    string
}

// New создает клиент. Хранилище и API клиент создаются при запуске команды.
func New(io iocli.IO, version string) *Cli {
	return &Cli{
		io:      io,
		version: version,
		now:     time.Now,
	}
}

// Execute разбирает аргументы и выполняет команду
func (c *Cli) Execute(ctx context.Context, args []string) error {
	root := c.rootCommand()
	root.SetArgs(args)
	root.SetOut(c.io)
	root.SetErr(c.io)

	defer c.close()

	return root.ExecuteContext(ctx)
}

func (c *Cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Personal reference-article manager client",
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&c.serverURL, "server", DefaultServerURL, "Server URL")
	root.PersistentFlags().StringVar(&c.dbPath, "db", DefaultDBPath, "Path to local session database")

	root.AddCommand(
		c.registerCommand(),
		c.loginCommand(),
		c.logoutCommand(),
		c.statusCommand(),
		c.profileCommand(),
		c.listCommand(),
		c.getCommand(),
		c.addCommand(),
		c.updateCommand(),
		c.deleteCommand(),
		c.searchCommand(),
	)

	return root
}

// setup открывает локальное хранилище и создает API клиент
func (c *Cli) setup(ctx context.Context) error {
	if c.apiClient == nil {
		c.apiClient = api.NewClient(c.serverURL)
	}
	if c.authStore != nil {
		return nil
	}

	store, err := boltdb.New(ctx, c.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open local storage: %w", err)
	}
	c.authStore = store
	c.closer = store.Close

	return nil
}

func (c *Cli) close() {
	if c.closer == nil {
		return
	}
	if err := c.closer(); err != nil {
		c.io.Printf("Warning: failed to close local storage: %v\n", err)
	}
	c.closer = nil
	c.authStore = nil
	c.apiClient = nil
}

// requireSession загружает сохраненную сессию и передает токен API клиенту
func (c *Cli) requireSession(ctx context.Context) (*storage.AuthData, error) {
	authData, err := c.authStore.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("failed to get auth data: %w", err)
	}

	if authData.Expired(c.now()) {
		return nil, ErrNotLoggedIn
	}

	c.apiClient.SetToken(authData.Token)
	return authData, nil
}

// serverError добавляет подсказку, если сервер не принял сохраненную сессию
func serverError(err error) error {
	if errors.Is(err, api.ErrNotAuthenticated) {
		return fmt.Errorf("%w (session rejected by server)", ErrNotLoggedIn)
	}
	return err
}

// valueOrPrompt возвращает значение флага или запрашивает его интерактивно
func (c *Cli) valueOrPrompt(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	input, err := c.io.ReadInput(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return input, nil
}
