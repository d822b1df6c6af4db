// 初始化课程内容脚本
//
// 为课程表中的每个章节写入一组已发布内容和一份测验，并创建开发用学员账号，
// 最后打印该账号的 JWT，便于本地调试接口。
// 可通过 -file 额外导入 YAML 格式的内容清单。
//
// 用法: go run scripts/seed_catalog.go [-file scripts/extra_content.yaml]

package main

import (
	"athos_explorer_backend/internal/config"
	"athos_explorer_backend/internal/curriculum"
	"athos_explorer_backend/internal/model"
	"athos_explorer_backend/internal/repository"
	"athos_explorer_backend/internal/util"
	"athos_explorer_backend/pkg/database"
	"athos_explorer_backend/pkg/logger"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

const devEmail = "pilgrim@athos.local"

type extraContent struct {
	Items []struct {
		ModuleID       string   `yaml:"module"`
		SectionID      string   `yaml:"section"`
		Title          string   `yaml:"title"`
		Summary        string   `yaml:"summary"`
		Type           string   `yaml:"type"`
		Difficulty     string   `yaml:"difficulty"`
		LearningStyles []string `yaml:"learning_styles"`
	} `yaml:"items"`
}

var sectionTemplates = []struct {
	kind   model.ContentType
	prefix string
	styles []string
}{
	{model.ContentLesson, "Introduction to", []string{string(model.StyleTextual)}},
	{model.ContentVideo, "Documentary:", []string{string(model.StyleVisual)}},
	{model.ContentInteractive, "Explore", []string{string(model.StyleInteractive), string(model.StyleVisual)}},
}

func main() {
	file := flag.String("file", "", "额外导入的 YAML 内容清单")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	contentRepo := repository.NewContentRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	userRepo := repository.NewUserRepository(db)

	seeded := 0
	for _, m := range curriculum.Modules() {
		for _, s := range m.Sections {
			ids, err := contentRepo.ListPublishedIDsBySection(m.ID, s.ID)
			if err != nil {
				log.Fatalf("查询章节内容失败: %v", err)
			}
			if len(ids) > 0 {
				continue
			}
			if err := seedSection(contentRepo, quizRepo, m, s); err != nil {
				log.Fatalf("写入章节 %s/%s 失败: %v", m.ID, s.ID, err)
			}
			seeded++
		}
	}
	log.Printf("已初始化 %d 个章节", seeded)

	if *file != "" {
		n, err := importExtra(contentRepo, *file)
		if err != nil {
			log.Fatalf("导入 %s 失败: %v", *file, err)
		}
		log.Printf("已导入 %d 条额外内容", n)
	}

	user, err := userRepo.FindByEmail(devEmail)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = &model.User{
			Name:          "Pilgrim",
			Email:         devEmail,
			Role:          model.Learner,
			LearningStyle: model.StyleBalanced,
			Difficulty:    model.Beginner,
		}
		err = userRepo.Create(user)
	}
	if err != nil {
		log.Fatalf("创建开发账号失败: %v", err)
	}

	token, err := util.GenerateJWT(user, cfg.JWT.Secret, cfg.JWT.ExpireTime)
	if err != nil {
		log.Fatalf("生成 JWT 失败: %v", err)
	}
	fmt.Printf("user_id=%d\ntoken=%s\n", user.ID, token)
}

func seedSection(contentRepo *repository.ContentRepository, quizRepo *repository.QuizRepository, m curriculum.Module, s curriculum.Section) error {
	for i, tpl := range sectionTemplates {
		item := &model.ContentItem{
			ModuleID:       m.ID,
			SectionID:      s.ID,
			Title:          fmt.Sprintf("%s %s", tpl.prefix, s.Title),
			Summary:        fmt.Sprintf("%s: %s", m.Title, s.Title),
			Type:           tpl.kind,
			Order:          i,
			Difficulty:     model.Beginner,
			LearningStyles: tpl.styles,
			Published:      true,
		}
		if err := contentRepo.Create(item); err != nil {
			return err
		}
	}

	quiz := &model.Quiz{
		ModuleID:  m.ID,
		SectionID: s.ID,
		Title:     s.Title + " Quiz",
		Published: true,
		Questions: []model.QuizQuestion{
			{
				Order:          0,
				Type:           model.TrueFalse,
				Prompt:         fmt.Sprintf("\"%s\" is part of the %s module.", s.Title, m.Title),
				Options:        []string{"true", "false"},
				Points:         1,
				CorrectAnswers: []string{"true"},
			},
			{
				Order:          1,
				Type:           model.SingleChoice,
				Prompt:         "Which module covers this section?",
				Options:        []string{m.Title, "None of the above"},
				Points:         2,
				CorrectAnswers: []string{m.Title},
			},
		},
	}
	return quizRepo.Create(quiz)
}

func importExtra(contentRepo *repository.ContentRepository, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var extra extraContent
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return 0, err
	}

	for i, it := range extra.Items {
		if !curriculum.HasSection(it.ModuleID, it.SectionID) {
			return i, fmt.Errorf("item %d: unknown section %s/%s", i, it.ModuleID, it.SectionID)
		}
		difficulty := model.Difficulty(it.Difficulty)
		if !difficulty.Valid() {
			difficulty = model.Beginner
		}
		item := &model.ContentItem{
			ModuleID:       it.ModuleID,
			SectionID:      it.SectionID,
			Title:          it.Title,
			Summary:        it.Summary,
			Type:           model.ContentType(it.Type),
			Order:          100 + i,
			Difficulty:     difficulty,
			LearningStyles: it.LearningStyles,
			Published:      true,
		}
		if err := contentRepo.Create(item); err != nil {
			return i, err
		}
	}
	return len(extra.Items), nil
}
