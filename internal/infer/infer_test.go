package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vagahub/engine/internal/jobs"
)

func TestWorkMode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want jobs.WorkMode
	}{
		{"100% Remoto", jobs.WorkModeRemote},
		{"Remote - Brazil", jobs.WorkModeRemote},
		{"São Paulo (Híbrido)", jobs.WorkModeHybrid},
		{"hybrid 3x per week", jobs.WorkModeHybrid},
		{"Presencial em Campinas", jobs.WorkModeOnsite},
		{"Onsite only", jobs.WorkModeOnsite},
		{"São Paulo, SP", jobs.WorkModeUnknown},
		{"", jobs.WorkModeUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, WorkMode(tc.in))
		})
	}
}

func TestEmploymentType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want jobs.EmploymentType
	}{
		{"Internship Program", jobs.EmploymentInternship},
		{"Vaga de Estágio", jobs.EmploymentInternship},
		{"Temporary position", jobs.EmploymentTemporary},
		{"Regime CLT", jobs.EmploymentCLT},
		{"Contractor", jobs.EmploymentContractor},
		{"Full time", jobs.EmploymentUnknown},
		{"", jobs.EmploymentUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, EmploymentType(tc.in))
		})
	}
}

func TestSeniority(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want jobs.Seniority
	}{
		{"Engenheiro de Software Sênior", jobs.SenioritySenior},
		{"Desenvolvedor Pleno", jobs.SeniorityMid},
		{"Dev Júnior", jobs.SeniorityJunior},
		{"Staff Engineer", jobs.SeniorityStaff},
		{"Principal Engineer", jobs.SeniorityPrincipal},
		{"Tech Lead", jobs.SeniorityLead},
		{"Estágio em TI", jobs.SeniorityIntern},
		{"Software Engineer", jobs.SeniorityUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Seniority(tc.in))
		})
	}
}

func TestTags(t *testing.T) {
	t.Parallel()

	tags := Tags("Desenvolvedor .NET Sênior", "Experiência com C#, Azure e PostgreSQL. Docker é um plus.")
	assert.ElementsMatch(t, []string{"dotnet", "csharp", "azure", "postgres", "docker"}, tags)

	assert.Empty(t, Tags("Analista Comercial", "Vendas e negociação."))
}

func TestTagsNoDuplicates(t *testing.T) {
	t.Parallel()

	tags := Tags("Dev .NET e ASP.NET", "postgres postgresql")
	assert.Equal(t, []string{"dotnet", "postgres"}, tags)
}

func TestLanguages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"pt-BR"}, Languages("Você irá atuar com integrações."))
	assert.Equal(t, []string{"en"}, Languages("You will build integrations."))
	assert.Equal(t, []string{"pt-BR"}, Languages("  "))
}
