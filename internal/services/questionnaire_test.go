package services

import (
  "context"
  "errors"
  "testing"

  "github.com/google/uuid"

  "github.com/orienta-app/orienta-backend/internal/requestdata"
  "github.com/orienta-app/orienta-backend/internal/types"
)

type questionnaireFixture struct {
  svc            QuestionnaireService
  diagnosticRepo *fakeDiagnosticRepo
  answerRepo     *fakeAnswerRepo
  questionRepo   *fakeQuestionRepo
  profileRepo    *fakeProfileRepo
  diagnostic     *types.Diagnostic
  userID         uuid.UUID
}

func newQuestionnaireFixture(t *testing.T, status types.DiagnosticStatus) *questionnaireFixture {
  t.Helper()
  f := &questionnaireFixture{
    diagnosticRepo: newFakeDiagnosticRepo(),
    answerRepo:     newFakeAnswerRepo(),
    questionRepo:   &fakeQuestionRepo{},
    profileRepo:    &fakeProfileRepo{},
    userID:         uuid.New(),
  }
  f.diagnostic = &types.Diagnostic{
    ID:     uuid.New(),
    UserID: f.userID,
    Status: status,
  }
  if _, err := f.diagnosticRepo.Create(context.Background(), nil, []*types.Diagnostic{f.diagnostic}); err != nil {
    t.Fatalf("create diagnostic: %v", err)
  }
  log := newTestLogger(t)
  scoring := NewScoringService(log, f.diagnosticRepo, f.answerRepo, f.questionRepo, f.profileRepo)
  f.svc = NewQuestionnaireService(log, passthroughTxRunner{}, f.diagnosticRepo, f.questionRepo, f.answerRepo, scoring)
  return f
}

func (f *questionnaireFixture) ctx() context.Context {
  return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: f.userID})
}

func (f *questionnaireFixture) addQuestion(t *testing.T, bloc, position int, opts []types.QuestionOption) *types.Question {
  t.Helper()
  q := &types.Question{
    ID:       uuid.New(),
    Bloc:     bloc,
    Text:     "q",
    Kind:     types.QuestionKindMCQ,
    Scored:   true,
    Position: position,
    Active:   true,
  }
  if err := q.SetOptions(opts); err != nil {
    t.Fatalf("SetOptions: %v", err)
  }
  f.questionRepo.questions = append(f.questionRepo.questions, q)
  return q
}

func TestSubmitBlocRecordsMatchingAnswers(t *testing.T) {
  f := newQuestionnaireFixture(t, types.DiagnosticStatusPaid)
  q1 := f.addQuestion(t, 1, 0, []types.QuestionOption{
    {Value: "a", ProfileSlug: "analyste", Points: 3},
    {Value: "b", ProfileSlug: "coordinateur", Points: 1},
  })
  q2 := f.addQuestion(t, 1, 1, []types.QuestionOption{
    {Value: "x", ProfileSlug: "batisseur", Points: 2},
  })
  f.addQuestion(t, 1, 2, []types.QuestionOption{
    {Value: "y", ProfileSlug: "communicateur", Points: 4},
  })

  result, err := f.svc.SubmitBloc(f.ctx(), f.diagnostic.ID, 1, map[string]string{
    q1.ID.String(): "a",
    q2.ID.String(): "does-not-exist", // no matching option, skipped
    // third question unanswered
  })
  if err != nil {
    t.Fatalf("SubmitBloc: %v", err)
  }
  if result.Completed || result.NextBloc != 2 {
    t.Fatalf("result = %+v, want next bloc 2", result)
  }

  answers, _ := f.answerRepo.GetByDiagnosticID(context.Background(), nil, f.diagnostic.ID)
  if len(answers) != 1 {
    t.Fatalf("answers = %d, want 1", len(answers))
  }
  if answers[0].QuestionID != q1.ID || answers[0].ProfileDimension != "analyste" || answers[0].PointsAwarded != 3 {
    t.Fatalf("answer = %+v", answers[0])
  }
  if f.diagnosticRepo.get(f.diagnostic.ID).Status != types.DiagnosticStatusInProgress {
    t.Fatalf("diagnostic should move to in_progress on first submit")
  }
}

func TestSubmitBlocIdempotent(t *testing.T) {
  f := newQuestionnaireFixture(t, types.DiagnosticStatusPaid)
  q := f.addQuestion(t, 1, 0, []types.QuestionOption{
    {Value: "a", ProfileSlug: "analyste", Points: 3},
    {Value: "b", ProfileSlug: "coordinateur", Points: 1},
  })

  if _, err := f.svc.SubmitBloc(f.ctx(), f.diagnostic.ID, 1, map[string]string{q.ID.String(): "a"}); err != nil {
    t.Fatalf("first submit: %v", err)
  }
  // Replay with a different value: the first answer must stick.
  if _, err := f.svc.SubmitBloc(f.ctx(), f.diagnostic.ID, 1, map[string]string{q.ID.String(): "b"}); err != nil {
    t.Fatalf("second submit: %v", err)
  }

  answers, _ := f.answerRepo.GetByDiagnosticID(context.Background(), nil, f.diagnostic.ID)
  if len(answers) != 1 {
    t.Fatalf("answers = %d, want 1", len(answers))
  }
  if answers[0].AnswerValue != "a" {
    t.Fatalf("answer value = %q, want first submission kept", answers[0].AnswerValue)
  }
}

func TestSubmitLastBlocScores(t *testing.T) {
  f := newQuestionnaireFixture(t, types.DiagnosticStatusInProgress)
  f.profileRepo.profiles = append(f.profileRepo.profiles, &types.Profile{ID: uuid.New(), Name: "Analyste", Slug: "analyste"})
  q := f.addQuestion(t, types.LastBloc, 0, []types.QuestionOption{
    {Value: "a", ProfileSlug: "analyste", Points: 5},
  })

  result, err := f.svc.SubmitBloc(f.ctx(), f.diagnostic.ID, types.LastBloc, map[string]string{q.ID.String(): "a"})
  if err != nil {
    t.Fatalf("SubmitBloc: %v", err)
  }
  if !result.Completed {
    t.Fatalf("result = %+v, want completed", result)
  }

  stored := f.diagnosticRepo.get(f.diagnostic.ID)
  if stored.Status != types.DiagnosticStatusCompleted {
    t.Fatalf("status = %s, want completed", stored.Status)
  }
  if stored.PrimaryProfileID == nil {
    t.Fatalf("primary profile not set after final bloc")
  }
}

func TestSubmitBlocGuards(t *testing.T) {
  f := newQuestionnaireFixture(t, types.DiagnosticStatusPendingPayment)
  if _, err := f.svc.SubmitBloc(f.ctx(), f.diagnostic.ID, 1, nil); !errors.Is(err, ErrPaymentRequired) {
    t.Fatalf("err = %v, want ErrPaymentRequired", err)
  }

  paid := newQuestionnaireFixture(t, types.DiagnosticStatusPaid)
  if _, err := paid.svc.SubmitBloc(paid.ctx(), paid.diagnostic.ID, 9, nil); !errors.Is(err, ErrInvalidBloc) {
    t.Fatalf("err = %v, want ErrInvalidBloc", err)
  }

  otherUser := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: uuid.New()})
  if _, err := paid.svc.SubmitBloc(otherUser, paid.diagnostic.ID, 1, nil); !errors.Is(err, ErrDiagnosticNotFound) {
    t.Fatalf("err = %v, want ErrDiagnosticNotFound", err)
  }

  if _, err := paid.svc.SubmitBloc(context.Background(), paid.diagnostic.ID, 1, nil); !errors.Is(err, ErrNotAuthenticated) {
    t.Fatalf("err = %v, want ErrNotAuthenticated", err)
  }
}

func TestGetBlocClamps(t *testing.T) {
  f := newQuestionnaireFixture(t, types.DiagnosticStatusPaid)
  f.addQuestion(t, 1, 0, []types.QuestionOption{{Value: "a"}})
  f.addQuestion(t, types.LastBloc, 0, []types.QuestionOption{{Value: "z"}})

  view, err := f.svc.GetBloc(f.ctx(), f.diagnostic.ID, 0)
  if err != nil {
    t.Fatalf("GetBloc low: %v", err)
  }
  if view.Bloc != types.FirstBloc || len(view.Questions) != 1 {
    t.Fatalf("view = bloc %d with %d questions", view.Bloc, len(view.Questions))
  }

  view, err = f.svc.GetBloc(f.ctx(), f.diagnostic.ID, 42)
  if err != nil {
    t.Fatalf("GetBloc high: %v", err)
  }
  if view.Bloc != types.LastBloc {
    t.Fatalf("bloc = %d, want %d", view.Bloc, types.LastBloc)
  }
}
