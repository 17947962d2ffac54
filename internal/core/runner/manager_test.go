package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neorecon/internal/core/filter"
	"neorecon/internal/core/model"
	"neorecon/internal/core/options"
	"neorecon/internal/pkg/client"
)

type staticSource map[model.RuleKind][]*model.SiteRule

func (s staticSource) Rules(kind model.RuleKind) ([]*model.SiteRule, error) {
	rules, ok := s[kind]
	if !ok {
		return nil, errors.New("load failed")
	}
	return rules, nil
}

func TestManagerExecute(t *testing.T) {
	nsfw := siteRule(2)
	nsfw.Category = model.NSFWCategory
	source := staticSource{
		model.RuleKindUsername: {siteRule(0), siteRule(1), nsfw},
	}
	doer := &fakeDoer{}
	m := NewRunnerManager(source, func(options.RunOptions) (client.Doer, error) { return doer, nil })

	job := &Job{Task: model.NewTask(model.RuleKindUsername, "alice"), NoNSFW: true, Run: testOptions()}
	report, err := m.Execute(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "alice", report.Target)
	assert.Equal(t, 2, report.TotalRules)
	assert.Len(t, report.FoundAccounts(), 2)

	job.Filter = "name=site-001"
	report, err = m.Execute(context.Background(), job)
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, "site-001", report.Outcomes[0].Name)
}

func TestManagerFatalErrors(t *testing.T) {
	source := staticSource{model.RuleKindUsername: {siteRule(0)}}
	m := NewRunnerManager(source, func(options.RunOptions) (client.Doer, error) { return &fakeDoer{}, nil })

	_, err := m.Execute(context.Background(), &Job{Task: model.NewTask(model.RuleKindEmail, "a@b.c"), Run: testOptions()})
	assert.EqualError(t, err, "load failed")

	_, err = m.Execute(context.Background(), &Job{Task: model.NewTask(model.RuleKindUsername, "alice"), Filter: "cat=none", Run: testOptions()})
	assert.ErrorIs(t, err, filter.ErrNoRules)

	_, err = m.Execute(context.Background(), &Job{Task: model.NewTask(model.RuleKindUsername, "alice"), Filter: "???", Run: testOptions()})
	var syntaxErr *filter.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)

	_, err = m.Get("phone")
	assert.Error(t, err)
}
