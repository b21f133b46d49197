package catalog

import (
	"github.com/maestrohq/maestro/detect"
	"github.com/maestrohq/maestro/workflow"
)

// matchTech activates when the profile filled the category with the given
// technology.
func matchTech(category detect.Category, technology string) func(*detect.Profile) bool {
	return func(p *detect.Profile) bool {
		return p.Technology(category) == technology
	}
}

// matchCategory activates when the profile filled the category with any
// technology.
func matchCategory(category detect.Category) func(*detect.Profile) bool {
	return func(p *detect.Profile) bool {
		_, ok := p.Get(category)
		return ok
	}
}

// defaultDescriptors is the built-in capability registry. Core agents carry
// no predicate and are always eligible for their stage. Specialists key off
// a single profile category so that a resolved stack activates at most one
// specialist per concern.
var defaultDescriptors = []Descriptor{
	// Core.
	{
		ID:             "architect",
		Category:       CategoryCore,
		Stage:          workflow.StageDesign,
		Priority:       10,
		TaskTemplate:   "Design the approach for: %s",
		ExpectedOutput: "design notes covering affected components and data flow",
	},
	{
		ID:             "implementer",
		Category:       CategoryCore,
		Stage:          workflow.StageImplementation,
		Priority:       10,
		TaskTemplate:   "Implement: %s",
		ExpectedOutput: "working code changes",
	},
	{
		ID:             "reviewer",
		Category:       CategoryCore,
		Stage:          workflow.StageQuality,
		Priority:       10,
		TaskTemplate:   "Review the changes for: %s",
		ExpectedOutput: "review findings with required fixes",
	},
	{
		ID:             "tester",
		Category:       CategoryCore,
		Stage:          workflow.StageQuality,
		Priority:       20,
		TaskTemplate:   "Write and run tests for: %s",
		ExpectedOutput: "passing tests covering the change",
	},
	{
		ID:             "committer",
		Category:       CategoryCore,
		Stage:          workflow.StageGit,
		Priority:       10,
		TaskTemplate:   "Stage and commit the changes for: %s",
		ExpectedOutput: "a clean commit with a descriptive message",
	},

	// Frontend framework specialists.
	{
		ID:             "react-specialist",
		Category:       CategorySpecialist,
		Stage:          workflow.StageImplementation,
		Priority:       30,
		Matches:        matchTech(detect.CategoryFrontendFramework, "React"),
		TaskTemplate:   "Apply React component and hook conventions while implementing: %s",
		ExpectedOutput: "idiomatic React components",
	},
	{
		ID:             "nextjs-specialist",
		Category:       CategorySpecialist,
		Stage:          workflow.StageImplementation,
		Priority:       30,
		Matches:        matchTech(detect.CategoryFrontendFramework, "Next.js"),
		TaskTemplate:   "Apply Next.js routing and rendering conventions while implementing: %s",
		ExpectedOutput: "Next.js pages or route handlers following app conventions",
	},
	{
		ID:             "vue-specialist",
		Category:       CategorySpecialist,
		Stage:          workflow.StageImplementation,
		Priority:       30,
		Matches:        matchTech(detect.CategoryFrontendFramework, "Vue"),
		TaskTemplate:   "Apply Vue single-file component conventions while implementing: %s",
		ExpectedOutput: "idiomatic Vue components",
	},
	{
		ID:             "angular-specialist",
		Category:       CategorySpecialist,
		Stage:          workflow.StageImplementation,
		Priority:       30,
		Matches:        matchTech(detect.CategoryFrontendFramework, "Angular"),
		TaskTemplate:   "Apply Angular module and service conventions while implementing: %s",
		ExpectedOutput: "idiomatic Angular modules and services",
	},
	{
		ID:             "svelte-specialist",
		Category:       CategorySpecialist,
		Stage:          workflow.StageImplementation,
		Priority:       30,
		Matches:        matchTech(detect.CategoryFrontendFramework, "Svelte"),
		TaskTemplate:   "Apply Svelte component conventions while implementing: %s",
		ExpectedOutput: "idiomatic Svelte components",
	},

	// Backend framework specialists.
	{
		ID:             "django-specialist",
		Category:       CategorySpecialist,
		Stage:          workflow.StageImplementation,
		Priority:       31,
		Matches:        matchTech(detect.CategoryBackendFramework, "Django"),
		TaskTemplate:   "Apply Django app, model, and view conventions while implementing: %s",
		ExpectedOutput: "idiomatic Django models, views, and URL wiring",
	},
	{
		ID:             "rails-specialist",
		Category:       CategorySpecialist,
		Stage:          workflow.StageImplementation,
		Priority:       31,
		Matches:        matchTech(detect.CategoryBackendFramework, "Rails"),
		TaskTemplate:   "Apply Rails MVC conventions while implementing: %s",
		ExpectedOutput: "idiomatic Rails controllers, models, and migrations",
	},
	{
		ID:             "express-specialist",
		Category:       CategorySpecialist,
		Stage:          workflow.StageImplementation,
		Priority:       31,
		Matches:        matchTech(detect.CategoryBackendFramework, "Express"),
		TaskTemplate:   "Apply Express middleware and router conventions while implementing: %s",
		ExpectedOutput: "idiomatic Express routes and middleware",
	},
	{
		ID:             "gin-specialist",
		Category:       CategorySpecialist,
		Stage:          workflow.StageImplementation,
		Priority:       31,
		Matches:        matchTech(detect.CategoryBackendFramework, "Gin"),
		TaskTemplate:   "Apply Gin handler and middleware conventions while implementing: %s",
		ExpectedOutput: "idiomatic Gin handlers",
	},
	{
		ID:             "laravel-specialist",
		Category:       CategorySpecialist,
		Stage:          workflow.StageImplementation,
		Priority:       31,
		Matches:        matchTech(detect.CategoryBackendFramework, "Laravel"),
		TaskTemplate:   "Apply Laravel controller and Eloquent conventions while implementing: %s",
		ExpectedOutput: "idiomatic Laravel controllers and models",
	},
	{
		ID:             "spring-specialist",
		Category:       CategorySpecialist,
		Stage:          workflow.StageImplementation,
		Priority:       31,
		Matches:        matchTech(detect.CategoryBackendFramework, "Spring Boot"),
		TaskTemplate:   "Apply Spring bean and controller conventions while implementing: %s",
		ExpectedOutput: "idiomatic Spring components",
	},

	// Data layer specialists.
	{
		ID:             "database-specialist",
		Category:       CategorySpecialist,
		Stage:          workflow.StageImplementation,
		Priority:       32,
		Matches:        matchCategory(detect.CategoryDatabase),
		TaskTemplate:   "Review schema and query implications while implementing: %s",
		ExpectedOutput: "sound schema changes and queries",
	},
	{
		ID:             "orm-specialist",
		Category:       CategorySpecialist,
		Stage:          workflow.StageImplementation,
		Priority:       33,
		Matches:        matchCategory(detect.CategoryORM),
		TaskTemplate:   "Keep model definitions and migrations consistent while implementing: %s",
		ExpectedOutput: "consistent model and migration changes",
	},

	// Styling and state specialists.
	{
		ID:             "styling-specialist",
		Category:       CategorySpecialist,
		Stage:          workflow.StageImplementation,
		Priority:       34,
		Matches:        matchCategory(detect.CategoryStyling),
		TaskTemplate:   "Follow the project styling system while implementing: %s",
		ExpectedOutput: "consistent styles using the detected styling system",
	},
	{
		ID:             "state-specialist",
		Category:       CategorySpecialist,
		Stage:          workflow.StageImplementation,
		Priority:       35,
		Matches:        matchCategory(detect.CategoryStateManagement),
		TaskTemplate:   "Follow the project state management patterns while implementing: %s",
		ExpectedOutput: "state changes wired through the detected store",
	},

	// Quality stage specialists.
	{
		ID:             "test-framework-specialist",
		Category:       CategorySpecialist,
		Stage:          workflow.StageQuality,
		Priority:       30,
		Matches:        matchCategory(detect.CategoryTestFramework),
		TaskTemplate:   "Write tests with the project test framework for: %s",
		ExpectedOutput: "tests written with the detected framework",
	},

	// Infrastructure specialists.
	{
		ID:             "docker-specialist",
		Category:       CategorySpecialist,
		Stage:          workflow.StageImplementation,
		Priority:       40,
		Matches:        matchTech(detect.CategoryContainerization, "Docker"),
		TaskTemplate:   "Keep container builds and compose services current while implementing: %s",
		ExpectedOutput: "updated Dockerfile or compose definitions where needed",
	},
	{
		ID:             "kubernetes-specialist",
		Category:       CategorySpecialist,
		Stage:          workflow.StageImplementation,
		Priority:       41,
		Matches:        matchTech(detect.CategoryOrchestration, "Kubernetes"),
		TaskTemplate:   "Keep manifests and deployment specs current while implementing: %s",
		ExpectedOutput: "updated Kubernetes manifests where needed",
	},
	{
		ID:             "terraform-specialist",
		Category:       CategorySpecialist,
		Stage:          workflow.StageImplementation,
		Priority:       42,
		Matches:        matchTech(detect.CategoryIaC, "Terraform"),
		TaskTemplate:   "Keep infrastructure definitions current while implementing: %s",
		ExpectedOutput: "updated Terraform configuration where needed",
	},
	{
		ID:             "cicd-specialist",
		Category:       CategorySpecialist,
		Stage:          workflow.StageQuality,
		Priority:       40,
		Matches:        matchCategory(detect.CategoryCI),
		TaskTemplate:   "Keep the CI pipeline green for: %s",
		ExpectedOutput: "pipeline configuration exercising the change",
	},
	{
		ID:             "nginx-specialist",
		Category:       CategorySpecialist,
		Stage:          workflow.StageImplementation,
		Priority:       43,
		Matches:        matchTech(detect.CategoryWebServer, "Nginx"),
		TaskTemplate:   "Keep proxy and server configuration current while implementing: %s",
		ExpectedOutput: "updated Nginx configuration where needed",
	},
	{
		ID:             "cloud-specialist",
		Category:       CategorySpecialist,
		Stage:          workflow.StageImplementation,
		Priority:       44,
		Matches:        matchCategory(detect.CategoryCloud),
		TaskTemplate:   "Account for the cloud runtime while implementing: %s",
		ExpectedOutput: "changes compatible with the detected cloud services",
	},
}

// Default returns the built-in catalog. It panics if the built-in set is
// inconsistent, which is a programming error.
func Default() *Catalog {
	c, err := New(defaultDescriptors)
	if err != nil {
		panic("catalog: invalid default descriptors: " + err.Error())
	}
	return c
}
