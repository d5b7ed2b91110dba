package db

import (
  "encoding/json"
  "fmt"

  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/orienta-app/orienta-backend/internal/logger"
  "github.com/orienta-app/orienta-backend/internal/types"
)

func mustJSON(v any) datatypes.JSON {
  raw, err := json.Marshal(v)
  if err != nil {
    return datatypes.JSON([]byte(`null`))
  }
  return datatypes.JSON(raw)
}

// SeedAll loads the baseline catalog: profiles with an active trajectory,
// the five questionnaire blocs and the supported mobile operators. Every
// write is FirstOrCreate so re-running at boot is safe.
func SeedAll(db *gorm.DB, log *logger.Logger) error {
  seedLog := log.With("component", "Seed")

  profiles := []struct {
    name, slug, description, firstAction, premiumPitch string
    keySkills                                          []string
    axes                                               [3]string
  }{
    {
      name:        "Analyste & Veille",
      slug:        "analyste",
      description: "Vous excellez dans l'analyse de données, la recherche et la synthèse d'informations complexes.",
      firstAction: "Réalisez une étude sectorielle sur un domaine qui vous attire et publiez-en la synthèse.",
      premiumPitch: "Le Roadmap Premium détaille un plan d'analyste sur 18 mois, avec certifications et portfolio.",
      keySkills:   []string{"Analyse de données", "Veille stratégique", "Rédaction de synthèses"},
      axes: [3]string{
        "Rejoindre une cellule d'analyse au sein d'une ONG ou d'une institution régionale.",
        "Intégrer un cabinet d'études ou une direction stratégie en entreprise.",
        "Se spécialiser en data analysis avec une certification reconnue.",
      },
    },
    {
      name:        "Coordinateur de Projets",
      slug:        "coordinateur",
      description: "Vous savez organiser, planifier et faire avancer des équipes vers un objectif commun.",
      firstAction: "Proposez-vous comme coordinateur bénévole sur un projet associatif local.",
      premiumPitch: "Le Roadmap Premium inclut un parcours certifiant en gestion de projet (PMD Pro, Prince2).",
      keySkills:   []string{"Gestion de projet", "Animation d'équipe", "Budgétisation"},
      axes: [3]string{
        "Coordonner des programmes terrain pour une ONG internationale.",
        "Piloter des projets transverses dans une entreprise de services.",
        "Évoluer vers la direction de programmes multi-pays.",
      },
    },
    {
      name:        "Communicateur & Influence",
      slug:        "communicateur",
      description: "Vous convainquez, racontez et créez du lien ; la communication est votre levier naturel.",
      firstAction: "Animez la communication d'un événement étudiant ou associatif de bout en bout.",
      premiumPitch: "Le Roadmap Premium couvre le personal branding et les métiers de la communication digitale.",
      keySkills:   []string{"Communication écrite et orale", "Réseaux sociaux", "Relations publiques"},
      axes: [3]string{
        "Porter le plaidoyer d'une organisation de la société civile.",
        "Rejoindre une agence ou une direction communication en entreprise.",
        "Se spécialiser en communication digitale et stratégie de contenu.",
      },
    },
    {
      name:        "Bâtisseur & Terrain",
      slug:        "batisseur",
      description: "Vous préférez l'action concrète : construire, produire, livrer des résultats tangibles.",
      firstAction: "Identifiez un besoin concret autour de vous et lancez un premier prototype de solution.",
      premiumPitch: "Le Roadmap Premium structure un parcours entrepreneurial avec mentorat et financement.",
      keySkills:   []string{"Exécution opérationnelle", "Résolution de problèmes", "Entrepreneuriat"},
      axes: [3]string{
        "Rejoindre les opérations d'une ONG de développement local.",
        "Intégrer une PME ou une startup en phase de croissance.",
        "Monter votre propre structure sur un créneau maîtrisé.",
      },
    },
  }

  for _, p := range profiles {
    profile := types.Profile{Name: p.name, Slug: p.slug}
    if err := db.Where(types.Profile{Slug: p.slug}).
      Attrs(types.Profile{
        Name:         p.name,
        Description:  p.description,
        FirstAction:  p.firstAction,
        PremiumPitch: p.premiumPitch,
        KeySkills:    mustJSON(p.keySkills),
      }).
      FirstOrCreate(&profile).Error; err != nil {
      return fmt.Errorf("seed profile %s: %w", p.slug, err)
    }
    trajectory := types.Trajectory{ProfileID: profile.ID}
    if err := db.Where(types.Trajectory{ProfileID: profile.ID, Active: true}).
      Attrs(types.Trajectory{Axe1: p.axes[0], Axe2: p.axes[1], Axe3: p.axes[2], Active: true}).
      FirstOrCreate(&trajectory).Error; err != nil {
      return fmt.Errorf("seed trajectory %s: %w", p.slug, err)
    }
  }

  if err := seedQuestions(db); err != nil {
    return err
  }

  operators := []types.MobileOperator{
    {Name: "Orange Money", Code: "ORANGE_CIV", CountryCode: "CI", Active: true},
    {Name: "MTN Mobile Money", Code: "MTN_MOMO_CIV", CountryCode: "CI", Active: true},
    {Name: "Wave", Code: "WAVE_CIV", CountryCode: "CI", Active: true},
    {Name: "Orange Money", Code: "ORANGE_SEN", CountryCode: "SN", Active: true},
    {Name: "Wave", Code: "WAVE_SEN", CountryCode: "SN", Active: true},
    {Name: "MTN Mobile Money", Code: "MTN_MOMO_BEN", CountryCode: "BJ", Active: true},
  }
  for _, op := range operators {
    existing := types.MobileOperator{}
    if err := db.Where(types.MobileOperator{Code: op.Code, CountryCode: op.CountryCode}).
      Attrs(op).
      FirstOrCreate(&existing).Error; err != nil {
      return fmt.Errorf("seed operator %s: %w", op.Code, err)
    }
  }

  seedLog.Info("Seed data ensured")
  return nil
}

func seedQuestions(db *gorm.DB) error {
  type opt = types.QuestionOption
  blocs := []struct {
    bloc     int
    kind     string
    scored   bool
    text     string
    position int
    options  []opt
  }{
    {1, types.QuestionKindMCQ, true, "Face à un problème nouveau, votre premier réflexe est de :", 1, []opt{
      {Value: "A", ProfileSlug: "analyste", Points: 1},
      {Value: "B", ProfileSlug: "coordinateur", Points: 1},
      {Value: "C", ProfileSlug: "communicateur", Points: 1},
      {Value: "D", ProfileSlug: "batisseur", Points: 1},
    }},
    {1, types.QuestionKindMCQ, true, "Dans un travail de groupe, on vous confie naturellement :", 2, []opt{
      {Value: "A", ProfileSlug: "analyste", Points: 1},
      {Value: "B", ProfileSlug: "coordinateur", Points: 1},
      {Value: "C", ProfileSlug: "communicateur", Points: 1},
      {Value: "D", ProfileSlug: "batisseur", Points: 1},
    }},
    {2, types.QuestionKindLikert, true, "J'aime découper un sujet complexe en éléments simples.", 1, []opt{
      {Value: "1", ProfileSlug: "analyste", Points: 0},
      {Value: "3", ProfileSlug: "analyste", Points: 1},
      {Value: "5", ProfileSlug: "analyste", Points: 2},
    }},
    {2, types.QuestionKindLikert, true, "Je prends plaisir à organiser le travail des autres.", 2, []opt{
      {Value: "1", ProfileSlug: "coordinateur", Points: 0},
      {Value: "3", ProfileSlug: "coordinateur", Points: 1},
      {Value: "5", ProfileSlug: "coordinateur", Points: 2},
    }},
    {2, types.QuestionKindLikert, true, "Convaincre un auditoire me motive plus que produire un rapport.", 3, []opt{
      {Value: "1", ProfileSlug: "communicateur", Points: 0},
      {Value: "3", ProfileSlug: "communicateur", Points: 1},
      {Value: "5", ProfileSlug: "communicateur", Points: 2},
    }},
    {3, types.QuestionKindMCQ, true, "Le cadre de travail qui vous attire le plus :", 1, []opt{
      {Value: "A", ProfileSlug: "analyste", Points: 1},
      {Value: "B", ProfileSlug: "coordinateur", Points: 1},
      {Value: "C", ProfileSlug: "communicateur", Points: 1},
      {Value: "D", ProfileSlug: "batisseur", Points: 1},
    }},
    {4, types.QuestionKindMCQ, false, "Un partenaire clé se retire d'un projet à une semaine du lancement. Que faites-vous en premier ?", 1, []opt{
      {Value: "A", ProfileSlug: "", Points: 0},
      {Value: "B", ProfileSlug: "", Points: 0},
      {Value: "C", ProfileSlug: "", Points: 0},
    }},
    {5, types.QuestionKindMCQ, true, "Dans cinq ans, vous vous voyez plutôt :", 1, []opt{
      {Value: "A", ProfileSlug: "analyste", Points: 2},
      {Value: "B", ProfileSlug: "coordinateur", Points: 2},
      {Value: "C", ProfileSlug: "communicateur", Points: 2},
      {Value: "D", ProfileSlug: "batisseur", Points: 2},
    }},
  }

  for _, q := range blocs {
    question := types.Question{}
    model := types.Question{Bloc: q.bloc, Position: q.position}
    attrs := types.Question{
      Text:   q.text,
      Kind:   q.kind,
      Scored: q.scored,
      Active: true,
    }
    if err := attrs.SetOptions(q.options); err != nil {
      return fmt.Errorf("seed question bloc=%d pos=%d: %w", q.bloc, q.position, err)
    }
    if err := db.Where(model).Attrs(attrs).FirstOrCreate(&question).Error; err != nil {
      return fmt.Errorf("seed question bloc=%d pos=%d: %w", q.bloc, q.position, err)
    }
  }
  return nil
}
