package detect

import "fmt"

// defaultTableYAML is the compiled-in signature table. It covers the
// technologies Maestro ships specialists for. Operators can replace it with
// their own table via detect.signature_table in the config.
//
// Within a category, rules that can legitimately coexist must agree on the
// technology or live at different priorities; two distinct technologies
// firing at the same priority surface as an ambiguity question.
const defaultTableYAML = `
rules:
  # --- language ---------------------------------------------------------
  - {category: language, technology: Go, kind: marker, pattern: go.mod}
  - {category: language, technology: Rust, kind: marker, pattern: Cargo.toml}
  - {category: language, technology: TypeScript, kind: marker, pattern: tsconfig.json}
  - {category: language, technology: Python, kind: marker, pattern: pyproject.toml}
  - {category: language, technology: Python, kind: marker, pattern: setup.py}
  - {category: language, technology: PHP, kind: marker, pattern: composer.json}
  - {category: language, technology: Ruby, kind: marker, pattern: Gemfile}
  - {category: language, technology: Java, kind: marker, pattern: pom.xml}
  - {category: language, technology: Java, kind: marker, pattern: build.gradle}
  - {category: language, technology: Java, kind: marker, pattern: build.gradle.kts}
  - {category: language, technology: "C#", kind: marker, pattern: "*.csproj"}
  - {category: language, technology: TypeScript, kind: dependency, manifest: package.json, dep: typescript}
  - {category: language, technology: Python, kind: marker, pattern: requirements.txt, priority: 2}
  - {category: language, technology: Python, kind: marker, pattern: Pipfile, priority: 2}
  - {category: language, technology: JavaScript, kind: marker, pattern: package.json, priority: 1}

  # --- frontend_framework ----------------------------------------------
  - {category: frontend_framework, technology: Next.js, kind: marker, pattern: "next.config.{js,mjs,ts}"}
  - {category: frontend_framework, technology: SvelteKit, kind: marker, pattern: "svelte.config.{js,ts}"}
  - {category: frontend_framework, technology: Nuxt, kind: marker, pattern: "nuxt.config.{js,ts}"}
  - {category: frontend_framework, technology: Angular, kind: marker, pattern: angular.json}
  - {category: frontend_framework, technology: Next.js, kind: dependency, manifest: package.json, dep: next}
  - {category: frontend_framework, technology: SvelteKit, kind: dependency, manifest: package.json, dep: "@sveltejs/kit"}
  - {category: frontend_framework, technology: Nuxt, kind: dependency, manifest: package.json, dep: nuxt}
  - {category: frontend_framework, technology: Angular, kind: dependency, manifest: package.json, dep: "@angular/core"}
  - {category: frontend_framework, technology: React, kind: dependency, manifest: package.json, dep: react, priority: 1}
  - {category: frontend_framework, technology: Vue, kind: dependency, manifest: package.json, dep: vue, priority: 1}
  - {category: frontend_framework, technology: Svelte, kind: dependency, manifest: package.json, dep: svelte, priority: 1}

  # --- backend_framework ------------------------------------------------
  - {category: backend_framework, technology: Django, kind: marker, pattern: manage.py}
  - {category: backend_framework, technology: Laravel, kind: marker, pattern: artisan}
  - {category: backend_framework, technology: Rails, kind: marker, pattern: config/routes.rb}
  - {category: backend_framework, technology: Express, kind: dependency, manifest: package.json, dep: express}
  - {category: backend_framework, technology: Fastify, kind: dependency, manifest: package.json, dep: fastify}
  - {category: backend_framework, technology: NestJS, kind: dependency, manifest: package.json, dep: "@nestjs/core"}
  - {category: backend_framework, technology: Koa, kind: dependency, manifest: package.json, dep: koa}
  - {category: backend_framework, technology: Django, kind: dependency, manifest: requirements.txt, dep: django}
  - {category: backend_framework, technology: Flask, kind: dependency, manifest: requirements.txt, dep: flask}
  - {category: backend_framework, technology: FastAPI, kind: dependency, manifest: requirements.txt, dep: fastapi}
  - {category: backend_framework, technology: Rails, kind: dependency, manifest: Gemfile, dep: rails}
  - {category: backend_framework, technology: Sinatra, kind: dependency, manifest: Gemfile, dep: sinatra}
  - {category: backend_framework, technology: Laravel, kind: dependency, manifest: composer.json, dep: laravel/framework}
  - {category: backend_framework, technology: Gin, kind: dependency, manifest: go.mod, dep: github.com/gin-gonic/gin}
  - {category: backend_framework, technology: Echo, kind: dependency, manifest: go.mod, dep: github.com/labstack/echo}
  - {category: backend_framework, technology: Fiber, kind: dependency, manifest: go.mod, dep: github.com/gofiber/fiber}
  - {category: backend_framework, technology: Spring Boot, kind: directory, pattern: "src/main/resources/application*.{properties,yml,yaml}"}

  # --- database ---------------------------------------------------------
  - {category: database, technology: PostgreSQL, kind: dependency, manifest: package.json, dep: pg}
  - {category: database, technology: PostgreSQL, kind: dependency, manifest: go.mod, dep: github.com/lib/pq}
  - {category: database, technology: PostgreSQL, kind: dependency, manifest: go.mod, dep: github.com/jackc/pgx}
  - {category: database, technology: PostgreSQL, kind: dependency, manifest: requirements.txt, dep: psycopg2}
  - {category: database, technology: PostgreSQL, kind: dependency, manifest: requirements.txt, dep: psycopg2-binary}
  - {category: database, technology: MySQL, kind: dependency, manifest: package.json, dep: mysql2}
  - {category: database, technology: MySQL, kind: dependency, manifest: go.mod, dep: github.com/go-sql-driver/mysql}
  - {category: database, technology: MongoDB, kind: dependency, manifest: package.json, dep: mongodb}
  - {category: database, technology: MongoDB, kind: dependency, manifest: package.json, dep: mongoose}
  - {category: database, technology: MongoDB, kind: dependency, manifest: go.mod, dep: go.mongodb.org/mongo-driver}
  - {category: database, technology: Redis, kind: dependency, manifest: package.json, dep: redis, priority: 1}
  - {category: database, technology: Redis, kind: dependency, manifest: package.json, dep: ioredis, priority: 1}
  - {category: database, technology: Redis, kind: dependency, manifest: go.mod, dep: github.com/redis/go-redis, priority: 1}
  - {category: database, technology: SQLite, kind: dependency, manifest: package.json, dep: better-sqlite3, priority: 1}
  - {category: database, technology: SQLite, kind: dependency, manifest: go.mod, dep: github.com/mattn/go-sqlite3, priority: 1}

  # --- orm --------------------------------------------------------------
  - {category: orm, technology: Prisma, kind: marker, pattern: prisma/schema.prisma}
  - {category: orm, technology: Prisma, kind: dependency, manifest: package.json, dep: "@prisma/client"}
  - {category: orm, technology: TypeORM, kind: dependency, manifest: package.json, dep: typeorm}
  - {category: orm, technology: Sequelize, kind: dependency, manifest: package.json, dep: sequelize}
  - {category: orm, technology: Drizzle, kind: dependency, manifest: package.json, dep: drizzle-orm}
  - {category: orm, technology: Mongoose, kind: dependency, manifest: package.json, dep: mongoose, priority: 1}
  - {category: orm, technology: SQLAlchemy, kind: dependency, manifest: requirements.txt, dep: sqlalchemy}
  - {category: orm, technology: GORM, kind: dependency, manifest: go.mod, dep: gorm.io/gorm}

  # --- test_framework ---------------------------------------------------
  - {category: test_framework, technology: Jest, kind: marker, pattern: "jest.config.{js,cjs,mjs,ts,json}"}
  - {category: test_framework, technology: Vitest, kind: marker, pattern: "vitest.config.{js,cjs,mjs,ts}"}
  - {category: test_framework, technology: Playwright, kind: marker, pattern: "playwright.config.{js,ts}"}
  - {category: test_framework, technology: Cypress, kind: marker, pattern: "cypress.config.{js,ts}"}
  - {category: test_framework, technology: pytest, kind: marker, pattern: pytest.ini}
  - {category: test_framework, technology: pytest, kind: marker, pattern: conftest.py}
  - {category: test_framework, technology: Jest, kind: dependency, manifest: package.json, dep: jest}
  - {category: test_framework, technology: Vitest, kind: dependency, manifest: package.json, dep: vitest}
  - {category: test_framework, technology: Mocha, kind: dependency, manifest: package.json, dep: mocha}
  - {category: test_framework, technology: pytest, kind: dependency, manifest: requirements.txt, dep: pytest}
  - {category: test_framework, technology: RSpec, kind: dependency, manifest: Gemfile, dep: rspec}

  # --- styling ----------------------------------------------------------
  - {category: styling, technology: Tailwind CSS, kind: marker, pattern: "tailwind.config.{js,cjs,ts}"}
  - {category: styling, technology: Tailwind CSS, kind: dependency, manifest: package.json, dep: tailwindcss}
  - {category: styling, technology: styled-components, kind: dependency, manifest: package.json, dep: styled-components}
  - {category: styling, technology: Emotion, kind: dependency, manifest: package.json, dep: "@emotion/react"}
  - {category: styling, technology: Sass, kind: dependency, manifest: package.json, dep: sass, priority: 1}
  - {category: styling, technology: Bootstrap, kind: dependency, manifest: package.json, dep: bootstrap, priority: 1}

  # --- state_management -------------------------------------------------
  - {category: state_management, technology: Redux, kind: dependency, manifest: package.json, dep: "@reduxjs/toolkit"}
  - {category: state_management, technology: Redux, kind: dependency, manifest: package.json, dep: redux}
  - {category: state_management, technology: Zustand, kind: dependency, manifest: package.json, dep: zustand}
  - {category: state_management, technology: MobX, kind: dependency, manifest: package.json, dep: mobx}
  - {category: state_management, technology: Pinia, kind: dependency, manifest: package.json, dep: pinia}
  - {category: state_management, technology: Vuex, kind: dependency, manifest: package.json, dep: vuex}
  - {category: state_management, technology: Jotai, kind: dependency, manifest: package.json, dep: jotai}

  # --- build_tool -------------------------------------------------------
  - {category: build_tool, technology: Vite, kind: marker, pattern: "vite.config.{js,mjs,ts}"}
  - {category: build_tool, technology: Webpack, kind: marker, pattern: "webpack.config.{js,cjs,ts}"}
  - {category: build_tool, technology: Rollup, kind: marker, pattern: "rollup.config.{js,mjs}"}
  - {category: build_tool, technology: Turborepo, kind: marker, pattern: turbo.json}
  - {category: build_tool, technology: esbuild, kind: dependency, manifest: package.json, dep: esbuild}
  - {category: build_tool, technology: Make, kind: marker, pattern: Makefile, priority: 1}
  - {category: build_tool, technology: Task, kind: marker, pattern: "Taskfile.{yml,yaml}", priority: 1}

  # --- package_manager --------------------------------------------------
  - {category: package_manager, technology: pnpm, kind: marker, pattern: pnpm-lock.yaml}
  - {category: package_manager, technology: Yarn, kind: marker, pattern: yarn.lock}
  - {category: package_manager, technology: npm, kind: marker, pattern: package-lock.json}
  - {category: package_manager, technology: Bun, kind: marker, pattern: bun.lockb}
  - {category: package_manager, technology: Bun, kind: marker, pattern: bun.lock}
  - {category: package_manager, technology: Poetry, kind: marker, pattern: poetry.lock}
  - {category: package_manager, technology: Pipenv, kind: marker, pattern: Pipfile.lock}
  - {category: package_manager, technology: Cargo, kind: marker, pattern: Cargo.lock, priority: 1}
  - {category: package_manager, technology: Go modules, kind: marker, pattern: go.sum, priority: 1}

  # --- containerization -------------------------------------------------
  - {category: containerization, technology: Docker, kind: marker, pattern: Dockerfile}
  - {category: containerization, technology: Docker, kind: marker, pattern: "docker-compose.{yml,yaml}"}
  - {category: containerization, technology: Docker, kind: marker, pattern: "compose.{yml,yaml}"}

  # --- orchestration ----------------------------------------------------
  - {category: orchestration, technology: Kubernetes, kind: marker, pattern: skaffold.yaml}
  - {category: orchestration, technology: Kubernetes, kind: directory, pattern: "k8s/**/*.{yml,yaml}"}
  - {category: orchestration, technology: Kubernetes, kind: directory, pattern: "charts/**/Chart.yaml"}
  - {category: orchestration, technology: Nomad, kind: directory, pattern: "*.nomad"}

  # --- iac --------------------------------------------------------------
  - {category: iac, technology: Terraform, kind: marker, pattern: "*.tf"}
  - {category: iac, technology: Terraform, kind: directory, pattern: "terraform/**/*.tf"}
  - {category: iac, technology: Pulumi, kind: marker, pattern: "Pulumi.yaml"}

  # --- ci ---------------------------------------------------------------
  - {category: ci, technology: GitHub Actions, kind: marker, pattern: ".github/workflows/*.{yml,yaml}"}
  - {category: ci, technology: GitLab CI, kind: marker, pattern: .gitlab-ci.yml}
  - {category: ci, technology: CircleCI, kind: marker, pattern: ".circleci/config.yml"}
  - {category: ci, technology: Jenkins, kind: marker, pattern: Jenkinsfile}

  # --- web_server -------------------------------------------------------
  - {category: web_server, technology: Nginx, kind: marker, pattern: nginx.conf}
  - {category: web_server, technology: Nginx, kind: directory, pattern: "nginx/**/*.conf"}
  - {category: web_server, technology: Caddy, kind: marker, pattern: Caddyfile}

  # --- cloud ------------------------------------------------------------
  - {category: cloud, technology: AWS, kind: dependency, manifest: package.json, dep: "@aws-sdk/client-s3"}
  - {category: cloud, technology: AWS, kind: dependency, manifest: package.json, dep: aws-sdk}
  - {category: cloud, technology: AWS, kind: dependency, manifest: requirements.txt, dep: boto3}
  - {category: cloud, technology: AWS, kind: dependency, manifest: go.mod, dep: github.com/aws/aws-sdk-go-v2}
  - {category: cloud, technology: AWS, kind: marker, pattern: "samconfig.toml"}
  - {category: cloud, technology: GCP, kind: dependency, manifest: go.mod, dep: cloud.google.com/go}
`

// DefaultTable returns the compiled-in signature table. The table is parsed
// on every call; callers cache the result.
func DefaultTable() *Table {
	t, err := LoadTable([]byte(defaultTableYAML))
	if err != nil {
		// The compiled-in table is validated by tests; a parse failure here
		// is a programming error.
		panic(fmt.Sprintf("detect: invalid default signature table: %v", err))
	}
	return t
}
