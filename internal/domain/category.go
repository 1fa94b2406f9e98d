package domain

// DefaultCategories é o conjunto semeado na primeira migração.
var DefaultCategories = []string{
	"Ferramentas",
	"EPI",
	"Material de Escritório",
	"Limpeza",
	"Equipamentos",
	"Outros",
}

// CategoryRepository define o contrato de persistência para categorias.
// Categorias são etiquetas planas: renomear atualiza o rótulo nos produtos,
// deletar não remove produtos.
type CategoryRepository interface {
	FindAll(ctx Context) ([]string, error)
	Add(ctx Context, name string) error
	Rename(ctx Context, oldName, newName string) error
	Delete(ctx Context, name string) error
}
