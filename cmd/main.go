package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/genai"

	// Pacotes de infraestrutura e utilitários
	"almox/config"
	"almox/internal/pkg/cache"
	"almox/internal/pkg/database"
	"almox/internal/pkg/logger"
	"almox/internal/pkg/token"

	// Camadas por módulo, para a injeção de dependências
	"almox/internal/api/ai"
	"almox/internal/api/category"
	"almox/internal/api/collaborator"
	"almox/internal/api/dashboard"
	"almox/internal/api/importer"
	"almox/internal/api/movement"
	"almox/internal/api/product"
	"almox/internal/api/router"
	"almox/internal/api/user"
	"almox/internal/repository/categoryrepo"
	"almox/internal/repository/collaboratorrepo"
	"almox/internal/repository/movementrepo"
	"almox/internal/repository/productrepo"
	"almox/internal/repository/userrepo"
	"almox/internal/service/aiservice"
	"almox/internal/service/categoryservice"
	"almox/internal/service/collaboratorservice"
	"almox/internal/service/productservice"
	"almox/internal/service/stockservice"
	"almox/internal/service/userservice"
)

// logNotifier encaminha os avisos de sincronização do estoque para o log.
// Falhas de persistência nunca revertem a mutação otimista; apenas avisam.
type logNotifier struct {
	log logger.Logger
}

func (n *logNotifier) Notify(kind string, message string) {
	n.log.Warn("Aviso de sincronização de estoque.", map[string]interface{}{
		"kind":    kind,
		"message": message,
	})
}

func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando serviço de almoxarifado...")
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	logg := logger.NewLogger(cfg.LogLevel)
	logg.Info("Configurações carregadas.", nil)

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		logg.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	logg.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis)
	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	logg.Info("Conexão Redis estabelecida.", nil)

	// C. Cliente Gemini (opcional; sem chave o serviço degrada para desativado)
	var genaiClient *genai.Client
	if cfg.GeminiAPIKey != "" {
		genaiClient, err = genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			logg.Warn("Falha ao inicializar o cliente Gemini. Análise assistida desativada.", map[string]interface{}{"error": err.Error()})
			genaiClient = nil
		}
	}

	// 3. INJEÇÃO DE DEPENDÊNCIAS (Repository -> Service -> Handler)

	// A. Repositórios
	productRepo := productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout)
	movementRepo := movementrepo.NewMovementRepository(db, cfg.DBTimeout, logg)
	collaboratorRepo := collaboratorrepo.NewCollaboratorRepository(db, cfg.DBTimeout, logg)
	categoryRepo := categoryrepo.NewCategoryRepository(db, cfg.DBTimeout, logg)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, logg)
	logg.Debug("Repositórios inicializados.", nil)

	// B. Serviços
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	stockSvc := stockservice.NewService(productRepo, movementRepo, collaboratorRepo, logg, &logNotifier{log: logg})
	productSvc := productservice.NewService(productRepo, stockSvc, logg)
	collaboratorSvc := collaboratorservice.NewService(collaboratorRepo, stockSvc, logg)
	categorySvc := categoryservice.NewService(categoryRepo, stockSvc, logg)
	userSvc := userservice.NewService(userRepo, tokenSvc)
	aiSvc := aiservice.NewService(genaiClient, cfg.GeminiModel, logg)
	logg.Debug("Serviços inicializados.", nil)

	// O snapshot em memória é a fonte de leitura das movimentações; carrega
	// tudo do armazenamento durável antes de aceitar requisições.
	if err := stockSvc.Reload(context.Background()); err != nil {
		logg.Fatal("Falha ao carregar o snapshot inicial de estoque.", err)
	}
	logg.Info("Snapshot de estoque carregado.", nil)

	// C. Handlers
	handlers := router.Handlers{
		Product:      product.NewHandler(productSvc, logg),
		Movement:     movement.NewHandler(stockSvc, logg),
		Collaborator: collaborator.NewHandler(collaboratorSvc, logg),
		Category:     category.NewHandler(categorySvc, logg),
		Dashboard:    dashboard.NewHandler(stockSvc, logg),
		Importer:     importer.NewHandler(stockSvc, movementRepo, logg),
		User:         user.NewHandler(userSvc, logg),
		AI:           ai.NewHandler(aiSvc, stockSvc, categorySvc, logg),
	}
	logg.Debug("Handlers inicializados.", nil)

	// 4. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(handlers, tokenSvc, cacheClient, cfg.RateLimitMaxRequests, cfg.RateLimitPeriod)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		logg.Info("Servidor de almoxarifado ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logg.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logg.Error("Desligamento do servidor forçado.", err)
	}

	logg.Info("Servidor encerrado com sucesso.", nil)
}
