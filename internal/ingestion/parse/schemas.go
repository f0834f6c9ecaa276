package parse

// Positional column schemas for the headerless ';'-separated files. The
// real files carry no header row but always respect these orders; a
// trailing separator yields the Col_dummy field.

// AcumcilColumns is the ACUMCIL H2 generation layout.
var AcumcilColumns = []string{
	"Codigo_CIL",
	"Codigo_Distribuidor",
	"Codigo_Unidad_programacion",
	"Codigo_Tipo_Punto",
	"Codigo_Provincia",
	"Fecha_inicio",
	"Fecha_final",
	"Magnitud",
	"Parcial_Estimada",
	"Horas_Estimadas",
	"Parcial_Redundante",
	"Horas_Redundantes",
	"Valor_Acumulado_Total_Energia",
	"Horas_Totales",
	"Col_dummy",
}

// AcumH2GRDColumns is the ACUM_H2_GRD layout.
var AcumH2GRDColumns = []string{
	"Codigo_PF",
	"Magnitud",
	"Valor_Acumulado_Parcial_Energia_Estimada_(KWh)",
	"Numero_Horas_Medidas_Estimadas",
	"Valor_Acumulado_Parcial_Energia_Registrador_Redundante_(KWh)",
	"Numero_Horas_Medidas_Registrador_Redundante",
	"Valor_Acumulado_Parcial_Energia_Registrador_Configuracion_(KWh)",
	"Numero_Horas_Medidas_Registrador_Configuracion_(KWh)",
	"Valor_Acumulado_Total_Energia",
	"Numero_Total_Horas_Medidas",
	"Col_dummy",
}

// ACUM_H2_GEN and ACUM_H2_RDD share the GRD layout.
var (
	AcumH2GENColumns = AcumH2GRDColumns
	AcumH2RDDColumns = AcumH2GRDColumns
)

// BaldColumns is the BALD loss-window report layout.
var BaldColumns = []string{
	"Codigo_unidad_perdidas",
	"GD",
	"ED",
	"CIL",
	"DT",
	"DD",
	"DD_A",
	"DD_S",
	"E0_suministrada",
	"E1_suministrada",
	"E2_suministrada",
	"E3_suministrada",
	"E4_suministrada",
	"E5_suministrada",
	"E6_suministrada",
	"E0_vertida",
	"E1_vertida",
	"E2_vertida",
	"E3_vertida",
	"E4_vertida",
	"E5_vertida",
	"E6_vertida",
	"Demanda_suministrada",
	"Demanda_vertida",
	"Demanda_neta",
	"Adquisicion",
	"Perdidas",
	"Perdidas_porcentaje",
	"Col_dummy",
}
