package services

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/database"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/models"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

type MacroService struct {
	macros *mongo.Collection
	logger *zap.Logger
}

func NewMacroService(db *database.DB, logger *zap.Logger) *MacroService {
	return &MacroService{
		macros: db.Collection(database.MacrosCollection),
		logger: logger,
	}
}

var placeholder = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_.]*)\s*\}\}`)

// ExtractVariables lists the distinct {{name}} placeholders of the given texts, sorted.
func ExtractVariables(texts ...string) []string {
	seen := map[string]struct{}{}
	for _, t := range texts {
		for _, m := range placeholder.FindAllStringSubmatch(t, -1) {
			seen[m[1]] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// RenderTemplate substitutes values; unknown placeholders stay in place and are reported.
func RenderTemplate(text string, values map[string]string) (string, []string) {
	missing := map[string]struct{}{}
	out := placeholder.ReplaceAllStringFunc(text, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if v, ok := values[name]; ok {
			return v
		}
		missing[name] = struct{}{}
		return m
	})
	names := make([]string, 0, len(missing))
	for n := range missing {
		names = append(names, n)
	}
	sort.Strings(names)
	return out, names
}

type RenderedMacro struct {
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	Missing []string `json:"missing"`
}

func (s *MacroService) Create(ctx context.Context, actor bson.ObjectID, in dto.CreateMacroDTO) (*models.Macro, error) {
	name := strings.TrimSpace(in.Name)
	slug := utils.GenerateSlug(name)
	if slug == "" {
		return nil, invalid("name must contain letters or digits")
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	now := time.Now().UTC()
	m := models.Macro{
		Name:      name,
		Slug:      slug,
		Category:  strings.TrimSpace(in.Category),
		Subject:   strings.TrimSpace(in.Subject),
		Body:      in.Body,
		Variables: ExtractVariables(in.Subject, in.Body),
		IsActive:  active,
		CreatedBy: actor,
		UpdatedBy: actor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := s.macros.InsertOne(ctx, m)
	if err != nil {
		if utils.IsDuplicateKey(err) {
			return nil, conflict("a macro named %q already exists", name)
		}
		return nil, err
	}
	m.ID = res.InsertedID.(bson.ObjectID)
	return &m, nil
}

func (s *MacroService) List(ctx context.Context, q, category string, active *bool, p utils.Pagination) ([]models.Macro, int64, error) {
	filter := notDeleted(bson.M{})
	if q = strings.TrimSpace(q); q != "" {
		rx := bson.M{"$regex": regexQuote(q), "$options": "i"}
		filter["$or"] = bson.A{bson.M{"name": rx}, bson.M{"subject": rx}}
	}
	if category != "" {
		filter["category"] = category
	}
	if active != nil {
		filter["isActive"] = *active
	}
	return findPage[models.Macro](ctx, s.macros, filter, bson.D{{Key: "name", Value: 1}}, p)
}

func (s *MacroService) Get(ctx context.Context, id bson.ObjectID) (*models.Macro, error) {
	return findOne[models.Macro](ctx, s.macros, notDeleted(bson.M{"_id": id}), "macro")
}

func (s *MacroService) Update(ctx context.Context, id, actor bson.ObjectID, in dto.UpdateMacroDTO) (*models.Macro, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	set := bson.M{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if utils.GenerateSlug(name) == "" {
			return nil, invalid("name must contain letters or digits")
		}
		set["name"] = name
		set["slug"] = utils.GenerateSlug(name)
	}
	if in.Category != nil {
		set["category"] = strings.TrimSpace(*in.Category)
	}
	subject, body := current.Subject, current.Body
	if in.Subject != nil {
		subject = strings.TrimSpace(*in.Subject)
		set["subject"] = subject
	}
	if in.Body != nil {
		if strings.TrimSpace(*in.Body) == "" {
			return nil, invalid("body cannot be empty")
		}
		body = *in.Body
		set["body"] = body
	}
	if in.IsActive != nil {
		set["isActive"] = *in.IsActive
	}
	if len(set) == 0 {
		return nil, invalid("no updates provided")
	}
	set["variables"] = ExtractVariables(subject, body)
	set["updatedBy"] = actor
	set["updatedAt"] = time.Now().UTC()

	out, err := updateAndReturn[models.Macro](ctx, s.macros, notDeleted(bson.M{"_id": id}), bson.M{"$set": set}, "macro")
	if err != nil && utils.IsDuplicateKey(err) {
		return nil, conflict("a macro with this name already exists")
	}
	return out, err
}

func (s *MacroService) Delete(ctx context.Context, id, actor bson.ObjectID) error {
	return softDelete(ctx, s.macros, id, actor, "macro")
}

func (s *MacroService) Render(ctx context.Context, id bson.ObjectID, values map[string]string) (*RenderedMacro, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.IsActive {
		return nil, conflict("macro is inactive")
	}
	subject, missingSubject := RenderTemplate(m.Subject, values)
	body, missingBody := RenderTemplate(m.Body, values)
	missing := utils.MergeLists(missingSubject, nil, missingBody)
	sort.Strings(missing)
	return &RenderedMacro{Subject: subject, Body: body, Missing: missing}, nil
}
