package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/akash-shanmuganathan/portfolio/backend/internal/config"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/model/persona"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/service/ai"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/service/corpus"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	mode := flag.String("mode", "corpus", "模式: file, corpus 或 ask")
	path := flag.String("path", "", "file 模式下要提取的文档路径")
	question := flag.String("q", "", "ask 模式下发送给助手的问题")
	jd := flag.Bool("jd", false, "ask 模式下把问题当作职位描述做分析")
	timeout := flag.Duration("timeout", 45*time.Second, "请求超时时间")

	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	switch *mode {
	case "file":
		if *path == "" {
			flag.Usage()
			log.Fatal("请通过 -path 指定文档")
		}
		text, err := corpus.ExtractText(*path)
		if err != nil {
			log.Fatalf("提取失败: %v", err)
		}
		fmt.Println(text)

	case "corpus":
		loader := corpus.NewLoader(cfg.Corpus.ResumePath, cfg.Corpus.ProjectsDir, logger)
		fmt.Println(loader.Load(ctx))

	case "ask":
		if *question == "" {
			flag.Usage()
			log.Fatal("请通过 -q 指定问题")
		}
		loader := corpus.NewLoader(cfg.Corpus.ResumePath, cfg.Corpus.ProjectsDir, logger)
		loader.Load(ctx)

		prompts := ai.NewPromptBuilder(cfg.AI.Owner, persona.NewMemoryStore(persona.Seed()), loader)
		svc, err := ai.NewService(ctx, cfg.AI, prompts, logger)
		if err != nil {
			log.Fatalf("AI 服务初始化失败: %v", err)
		}

		start := time.Now()
		var reply string
		if *jd {
			reply, err = svc.Analyze(ctx, *question)
		} else {
			reply, err = svc.Reply(ctx, persona.NovaID, nil, *question)
		}
		if err != nil {
			log.Fatalf("生成失败: %v", err)
		}
		log.Printf("[INFO] %s 回复耗时 %s", cfg.AI.Model(), time.Since(start).Round(time.Millisecond))
		fmt.Println(reply)

	default:
		flag.Usage()
		fmt.Fprintf(os.Stderr, "未知模式: %s\n", *mode)
		os.Exit(2)
	}
}
