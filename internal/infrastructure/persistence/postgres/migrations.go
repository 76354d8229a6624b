package postgres

// Embedded migration SQL. One migration per aggregate family; uniqueness that
// the domain relies on (documento, institutional email, the (estudiante,
// grupo) pair) is enforced here with unique indexes, never with
// check-then-insert in application code.

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: practicantes + usuarios
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS practicantes (
	id TEXT PRIMARY KEY,
	documento TEXT NOT NULL,
	nombres TEXT NOT NULL,
	apellidos TEXT NOT NULL,
	email_personal TEXT NOT NULL,
	email_institucional TEXT NOT NULL DEFAULT '',
	telefono TEXT NOT NULL DEFAULT '',
	programa TEXT NOT NULL,
	estado TEXT NOT NULL CHECK (estado IN (
		'preinscrito', 'pago_pendiente', 'pago_validado', 'estudiante_creado', 'rechazado'
	)),
	comprobante_url TEXT NOT NULL DEFAULT '',
	comprobante_content_type TEXT NOT NULL DEFAULT '',
	comprobante_size BIGINT NOT NULL DEFAULT 0,
	fecha_subida TIMESTAMPTZ,
	validacion_estado TEXT NOT NULL DEFAULT 'pendiente' CHECK (validacion_estado IN (
		'pendiente', 'aprobada', 'rechazada'
	)),
	validado_por TEXT NOT NULL DEFAULT '',
	fecha_validacion TIMESTAMPTZ,
	comentarios TEXT NOT NULL DEFAULT '',
	usuario_id TEXT NOT NULL DEFAULT '',
	cuenta_creada_at TIMESTAMPTZ,
	cuenta_creada_por TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Idempotency boundary of the preinscription: one record per document.
CREATE UNIQUE INDEX IF NOT EXISTS uq_practicantes_documento ON practicantes(documento);
CREATE INDEX IF NOT EXISTS idx_practicantes_estado ON practicantes(estado);

CREATE TABLE IF NOT EXISTS usuarios (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	practicante_id TEXT NOT NULL REFERENCES practicantes(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_usuarios_email ON usuarios(email);
`

const migration001Down = `
DROP TABLE IF EXISTS usuarios;
DROP TABLE IF EXISTS practicantes;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: solicitudes_empresas
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS solicitudes_empresas (
	id TEXT PRIMARY KEY,
	nit TEXT NOT NULL,
	razon_social TEXT NOT NULL,
	email_contacto TEXT NOT NULL,
	telefono TEXT NOT NULL DEFAULT '',
	direccion TEXT NOT NULL DEFAULT '',
	estado TEXT NOT NULL CHECK (estado IN (
		'pendiente_revision', 'en_revision', 'aprobada', 'rechazada'
	)),
	notas_director TEXT NOT NULL DEFAULT '',
	revisado_por TEXT NOT NULL DEFAULT '',
	fecha_decision TIMESTAMPTZ,
	practicantes JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_solicitudes_estado ON solicitudes_empresas(estado);
`

const migration002Down = `
DROP TABLE IF EXISTS solicitudes_empresas;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: procesos_practicas
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS procesos_practicas (
	id TEXT PRIMARY KEY,
	estudiante_id TEXT NOT NULL,
	grupo_id TEXT NOT NULL,
	arl_id TEXT NOT NULL DEFAULT '',
	certificado_id TEXT NOT NULL DEFAULT '',
	atlas_docente_id TEXT NOT NULL DEFAULT '',
	atlas_estudiante_id TEXT NOT NULL DEFAULT '',
	atlas_obras_id TEXT NOT NULL DEFAULT '',
	anexo_ids TEXT[] NOT NULL DEFAULT '{}',
	nota_1 DOUBLE PRECISION,
	nota_2 DOUBLE PRECISION,
	nota_3 DOUBLE PRECISION,
	nota_4 DOUBLE PRECISION,
	evaluacion_enlace TEXT NOT NULL DEFAULT '',
	evaluacion_observaciones TEXT NOT NULL DEFAULT '',
	autoevaluacion TEXT NOT NULL DEFAULT '',
	es_consultoria BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Exactly one proceso per (estudiante, grupo); concurrent get-or-create
-- races resolve here, not in application code.
CREATE UNIQUE INDEX IF NOT EXISTS uq_procesos_estudiante_grupo
	ON procesos_practicas(estudiante_id, grupo_id);
CREATE INDEX IF NOT EXISTS idx_procesos_grupo ON procesos_practicas(grupo_id);
`

const migration003Down = `
DROP TABLE IF EXISTS procesos_practicas;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: recursos + seguimientos
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
CREATE TABLE IF NOT EXISTS recursos (
	id TEXT PRIMARY KEY,
	tipo TEXT NOT NULL CHECK (tipo IN (
		'arl', 'atlas', 'seguimiento', 'evaluacion', 'autoevaluacion', 'certificado', 'anexo'
	)),
	subtipo TEXT NOT NULL DEFAULT '' CHECK (subtipo IN (
		'', 'autorizacion_docente', 'autorizacion_estudiante', 'relacion_obras'
	)),
	titulo TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	content_type TEXT NOT NULL DEFAULT '',
	size BIGINT NOT NULL DEFAULT 0,
	nota DOUBLE PRECISION,
	notas_adicionales TEXT NOT NULL DEFAULT '',
	estado TEXT NOT NULL DEFAULT 'pendiente' CHECK (estado IN (
		'pendiente', 'validado', 'rechazado'
	)),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_recursos_tipo ON recursos(tipo);

CREATE TABLE IF NOT EXISTS seguimientos (
	id TEXT PRIMARY KEY,
	grupo_id TEXT NOT NULL,
	titulo TEXT NOT NULL,
	fecha_limite TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_seguimientos_grupo ON seguimientos(grupo_id);

CREATE TABLE IF NOT EXISTS entradas_seguimiento (
	id TEXT PRIMARY KEY,
	seguimiento_id TEXT NOT NULL REFERENCES seguimientos(id) ON DELETE CASCADE,
	estudiante_id TEXT NOT NULL,
	recurso_id TEXT NOT NULL,
	orden INTEGER NOT NULL DEFAULT 0
);

-- One entry per student per checkpoint.
CREATE UNIQUE INDEX IF NOT EXISTS uq_entradas_seguimiento_estudiante
	ON entradas_seguimiento(seguimiento_id, estudiante_id);
CREATE INDEX IF NOT EXISTS idx_entradas_estudiante ON entradas_seguimiento(estudiante_id);
`

const migration004Down = `
DROP TABLE IF EXISTS entradas_seguimiento;
DROP TABLE IF EXISTS seguimientos;
DROP TABLE IF EXISTS recursos;
`
