package sqlite

const schema = `
-- Requirement catalog
CREATE TABLE IF NOT EXISTS requirements (
    id TEXT PRIMARY KEY,
    template_id TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL CHECK(length(title) <= 500),
    notes TEXT NOT NULL DEFAULT '',
    required INTEGER NOT NULL DEFAULT 1,
    recency_days INTEGER CHECK(recency_days IS NULL OR recency_days > 0),
    position INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_requirements_template ON requirements(template_id, position);

-- Documents (evidence)
CREATE TABLE IF NOT EXISTS documents (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'needs_review',
    doc_date DATETIME,
    expires_at DATETIME,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (tenant_id, id)
);

-- Links: at most one per (tenant, requirement)
CREATE TABLE IF NOT EXISTS links (
    tenant_id TEXT NOT NULL,
    requirement_id TEXT NOT NULL,
    document_id TEXT NOT NULL,
    override TEXT NOT NULL DEFAULT ''
        CHECK(override IN ('', 'satisfied', 'rejected', 'not_sure')),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (tenant_id, requirement_id)
);

-- Tracking tasks
CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    template_id TEXT NOT NULL DEFAULT '',
    requirement_id TEXT NOT NULL DEFAULT '',
    source TEXT NOT NULL DEFAULT 'user' CHECK(source IN ('user', 'missing_item')),
    title TEXT NOT NULL CHECK(length(title) <= 500),
    status TEXT NOT NULL DEFAULT 'open' CHECK(status IN ('open', 'snoozed', 'done')),
    priority TEXT NOT NULL DEFAULT 'normal' CHECK(priority IN ('normal', 'urgent')),
    due_at DATETIME,
    completed_at DATETIME,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    -- completed_at invariant: done tasks must have it, others must not
    CHECK (
        (status = 'done' AND completed_at IS NOT NULL) OR
        (status != 'done' AND completed_at IS NULL)
    )
);

CREATE INDEX IF NOT EXISTS idx_tasks_machine ON tasks(tenant_id, template_id, source);
CREATE INDEX IF NOT EXISTS idx_tasks_requirement ON tasks(tenant_id, requirement_id);
`
